package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"college/internal/api"
	"college/internal/app"
	"college/internal/attendance"
	"college/internal/auth"
	"college/internal/cloudinary"
	"college/internal/config"
	"college/internal/httpmiddleware"
	"college/internal/timetable"
)

func main() {
	cfg := config.Load()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	redisUp := backends.Redis.Healthy(ctx)
	if !redisUp {
		log.Printf("warning: redis not reachable at %s, using in-process fallbacks", cfg.RedisAddr)
	}

	var cache attendance.SummaryCache
	var revocations auth.Revocations = auth.NewMemoryRevocations()
	if redisUp {
		cache = attendance.NewRedisSummaryCache(backends.Redis.Client, cfg.SummaryTTL)
		revocations = auth.NewRedisRevocations(backends.Redis.Client)
	}

	deps := api.Deps{
		Attendance:    attendance.NewService(backends.TxManager, cache),
		Timetables:    timetable.NewService(backends.TxManager, cfg.ValidDepartments),
		Authenticator: auth.NewAuthenticator(backends.TxManager),
		Signer:        auth.NewSigner(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		Revocations:   revocations,
		Events:        backends.Queue,
		Limiter: httpmiddleware.Middleware(
			httpmiddleware.NewRedisFixedWindow(backends.Redis.Client, cfg.RateLimitPerMin),
			httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin),
		),
		Health: map[string]api.HealthCheck{
			"redis": backends.Redis.Healthy,
		},
		CORSOrigins: cfg.CORSOrigins,
	}
	if backends.DB != nil {
		deps.Health["db"] = backends.DB.Healthy
	}

	// Cloudinary client (nil when not configured)
	if cfg.CloudinaryConfigured() {
		deps.Uploader = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

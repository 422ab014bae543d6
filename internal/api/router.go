// Package api exposes the attendance, timetable, auth and attachment
// endpoints over gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"college/internal/attendance"
	"college/internal/auth"
	"college/internal/cloudinary"
	"college/internal/queue"
	"college/internal/timetable"
)

// Uploader stores validated attachments.
type Uploader interface {
	UploadRaw(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators the handlers call into. Events, Uploader and
// Limiter may be nil.
type Deps struct {
	Attendance    *attendance.Service
	Timetables    *timetable.Service
	Authenticator *auth.Authenticator
	Signer        *auth.Signer
	Revocations   auth.Revocations
	Events        queue.Queue
	Uploader      Uploader
	Limiter       gin.HandlerFunc
	Health        map[string]HealthCheck
	CORSOrigins   []string
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps Deps) *gin.Engine {
	h := &handler{Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware(deps.CORSOrigins))
	r.Use(securityHeaders())
	if deps.Limiter != nil {
		r.Use(deps.Limiter)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/logout", h.logout)
	v1.POST("/auth/refresh", h.refresh)

	v1.GET("/attendance/absentees", h.listAbsentees)
	v1.GET("/attendance/summary", h.attendanceSummary)
	v1.GET("/timetables", h.listTimetables)

	staff := v1.Group("", auth.Bearer(deps.Signer, auth.RoleFaculty, auth.RoleAdmin))
	staff.POST("/attendance", h.submitAttendance)
	staff.POST("/messages/attachments", h.uploadAttachment)

	admin := v1.Group("", auth.Bearer(deps.Signer, auth.RoleAdmin))
	admin.POST("/timetables", h.createTimetable)

	return r
}

func (h *handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Health {
		healthy := check(ctx)
		body[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       24 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"college/internal/app"
	"college/internal/attendance"
	"college/internal/config"
	"college/internal/domain"
	"college/internal/queue"
)

// Worker consumes reconciliation events and refreshes cached summaries.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend == "memory" {
		log.Println("QUEUE_BACKEND=memory: events published by the API never reach this process")
	}

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backend init failed: %v", err)
	}
	defer backends.Close()

	if !backends.Redis.Healthy(ctx) {
		log.Fatalf("redis not reachable at %s", cfg.RedisAddr)
	}

	svc := attendance.NewService(backends.TxManager, attendance.NewRedisSummaryCache(backends.Redis.Client, cfg.SummaryTTL))

	messages, err := backends.Queue.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		handle(ctx, svc, msg)
	}

	log.Println("worker stopped")
}

func handle(ctx context.Context, svc *attendance.Service, msg queue.Message) {
	if msg.Type != queue.TypeReconciled {
		log.Printf("skipping message of type %q", msg.Type)
		return
	}

	var evt domain.ReconciledEvent
	if err := msg.Decode(&evt); err != nil {
		log.Printf("%v", err)
		return
	}

	summary, err := svc.RefreshSummary(ctx, evt.CourseCode, evt.Department)
	if err != nil {
		log.Printf("refresh summary %s/%s failed: %v", evt.Department, evt.CourseCode, err)
		return
	}
	log.Printf("summary %s/%s refreshed: %d classes, %d students with absences",
		evt.Department, evt.CourseCode, summary.TotalClasses, len(summary.Students))
}

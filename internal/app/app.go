// Package app wires the configured backends shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log"

	"college/internal/config"
	"college/internal/queue"
	"college/internal/repository"
	"college/internal/store"
	"college/migrations"
)

// Backends are the store, redis and queue selected by config.
type Backends struct {
	TxManager repository.TxManager
	DB        *store.DB
	Redis     *store.Redis
	Queue     queue.Queue
}

// Open connects the configured backends. With STORE_BACKEND=postgres the
// schema migrations are applied before returning.
func Open(ctx context.Context, cfg config.App) (*Backends, error) {
	b := &Backends{Redis: store.NewRedis(store.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})}

	switch cfg.StoreBackend {
	case "memory":
		log.Println("using in-memory store")
		b.TxManager = repository.NewMemoryTxManager()
	case "postgres", "":
		db, err := store.NewDB(ctx, cfg.DatabaseURL, store.PoolOptions{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			_ = b.Redis.Close()
			return nil, fmt.Errorf("db connect: %w", err)
		}
		applied, err := migrations.Up(ctx, db.Client)
		if err != nil {
			_ = db.Close()
			_ = b.Redis.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		for _, name := range applied {
			log.Printf("applied migration %s", name)
		}
		b.DB = db
		b.TxManager = repository.NewPostgresTxManager(db.Client)
	default:
		_ = b.Redis.Close()
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.QueueBackend == "memory" {
		b.Queue = queue.NewInMemory(64)
	} else {
		b.Queue = queue.NewRedisQueue(b.Redis.Client, "college:events")
	}
	return b, nil
}

// Close releases every connection.
func (b *Backends) Close() {
	if err := b.DB.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
	if err := b.Redis.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}
}

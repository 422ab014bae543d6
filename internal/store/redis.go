package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the one client behind the event queue, the attendance summary
// cache, the shared rate-limit windows and refresh-token revocations.
type Redis struct {
	Client *redis.Client
}

// RedisOptions selects the server and logical database.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis builds the client lazily; no connection is made until first use,
// so the API can start and fall back to in-process state when Redis is down.
func NewRedis(opts RedisOptions) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})}
}

// Healthy reports whether a PING succeeds within ctx.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

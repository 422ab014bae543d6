package httpmiddleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request from key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Middleware enforces per-IP limits. When the primary limiter errors the
// fallback decides instead; without a fallback the request is let through.
func Middleware(primary, fallback Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		allowed, err := primary.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Printf("rate limiter unavailable, falling back: %v", err)
			allowed = true
			if fallback != nil {
				allowed, _ = fallback.Allow(c.Request.Context(), ip)
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "rate_limited", "error": "rate limit"})
			return
		}
		c.Next()
	}
}

// RedisFixedWindow counts requests per key in one-minute windows shared by
// every API instance.
type RedisFixedWindow struct {
	client    *redis.Client
	perMinute int
	now       func() time.Time
}

func NewRedisFixedWindow(client *redis.Client, perMinute int) *RedisFixedWindow {
	return &RedisFixedWindow{client: client, perMinute: perMinute, now: time.Now}
}

func (l *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(window, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.perMinute), nil
}

// SimpleTokenBucket is an in-memory rate limiter.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *SimpleTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := l.now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true, nil
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

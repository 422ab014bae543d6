package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations remembers refresh token ids that were logged out or rotated.
type Revocations interface {
	// Revoke marks tokenID as used until the token expires. It reports
	// whether this call did the marking, so exactly one of several callers
	// racing on the same token wins.
	Revoke(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

// RedisRevocations stores revoked ids as keys expiring with the token.
type RedisRevocations struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client, now: time.Now}
}

func revocationKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return false, nil
	}
	return r.client.SetNX(ctx, revocationKey(tokenID), 1, ttl).Result()
}

// MemoryRevocations is the in-process variant used with the memory store.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !until.After(now) {
		return false, nil
	}
	if prev, ok := m.revoked[tokenID]; ok && prev.After(now) {
		return false, nil
	}
	m.revoked[tokenID] = until
	return true, nil
}

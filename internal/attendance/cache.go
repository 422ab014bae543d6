package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache keeps summaries as JSON strings with a TTL.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func summaryKey(courseCode, department string) string {
	return "attendance:summary:" + department + ":" + courseCode
}

func (c *RedisSummaryCache) Get(ctx context.Context, courseCode, department string) (Summary, bool, error) {
	raw, err := c.client.Get(ctx, summaryKey(courseCode, department)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, err
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return Summary{}, false, err
	}
	return summary, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, summary Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.CourseCode, summary.Department), raw, c.ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, courseCode, department string) error {
	return c.client.Del(ctx, summaryKey(courseCode, department)).Err()
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emiafrica/market-intel/internal/domain"
)

const ratelimitKeyPrefix = "marketintel:ratelimit:"

// RateLimiter implements a fixed-window counter per key. INCR and the
// first-write EXPIRE run in one pipeline so the window always has a TTL.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a RateLimiter over the shared client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.RDB()}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	full := ratelimitKeyPrefix + key

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: ratelimit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

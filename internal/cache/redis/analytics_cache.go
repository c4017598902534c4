package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emiafrica/market-intel/internal/domain"
)

const analyticsKeyPrefix = "marketintel:analytics:"

// AnalyticsCache caches computed analytics views. The TTL bounds how
// stale a reporting view may be after a price change the invalidation
// missed.
type AnalyticsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnalyticsCache creates an AnalyticsCache over the shared client.
func NewAnalyticsCache(c *Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{rdb: c.RDB(), ttl: ttl}
}

func (c *AnalyticsCache) Set(ctx context.Context, listingID string, v domain.AnalyticsView) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: marshal analytics %s: %w", listingID, err)
	}
	if err := c.rdb.Set(ctx, analyticsKeyPrefix+listingID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set analytics %s: %w", listingID, err)
	}
	return nil
}

func (c *AnalyticsCache) Get(ctx context.Context, listingID string) (domain.AnalyticsView, error) {
	data, err := c.rdb.Get(ctx, analyticsKeyPrefix+listingID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AnalyticsView{}, domain.ErrNotFound
		}
		return domain.AnalyticsView{}, fmt.Errorf("redis: get analytics %s: %w", listingID, err)
	}
	var v domain.AnalyticsView
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.AnalyticsView{}, fmt.Errorf("redis: unmarshal analytics %s: %w", listingID, err)
	}
	return v, nil
}

func (c *AnalyticsCache) Invalidate(ctx context.Context, listingID string) error {
	if err := c.rdb.Del(ctx, analyticsKeyPrefix+listingID).Err(); err != nil {
		return fmt.Errorf("redis: invalidate analytics %s: %w", listingID, err)
	}
	return nil
}

var _ domain.AnalyticsCache = (*AnalyticsCache)(nil)

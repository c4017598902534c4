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

const listingKeyPrefix = "marketintel:listing:"

// ListingCache caches full listing views as JSON with a fixed TTL.
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache creates a ListingCache over the shared client.
func NewListingCache(c *Client, ttl time.Duration) *ListingCache {
	return &ListingCache{rdb: c.RDB(), ttl: ttl}
}

func (c *ListingCache) Set(ctx context.Context, l domain.PriceListing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("redis: marshal listing %s: %w", l.ID, err)
	}
	if err := c.rdb.Set(ctx, listingKeyPrefix+l.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set listing %s: %w", l.ID, err)
	}
	return nil
}

func (c *ListingCache) Get(ctx context.Context, id string) (domain.PriceListing, error) {
	data, err := c.rdb.Get(ctx, listingKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PriceListing{}, domain.ErrNotFound
		}
		return domain.PriceListing{}, fmt.Errorf("redis: get listing %s: %w", id, err)
	}
	var l domain.PriceListing
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.PriceListing{}, fmt.Errorf("redis: unmarshal listing %s: %w", id, err)
	}
	return l, nil
}

func (c *ListingCache) Invalidate(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, listingKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis: invalidate listing %s: %w", id, err)
	}
	return nil
}

var _ domain.ListingCache = (*ListingCache)(nil)

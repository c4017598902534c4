package domain

import (
	"context"
	"time"
)

// ListingCache provides fast listing view lookups.
type ListingCache interface {
	Set(ctx context.Context, l PriceListing) error
	Get(ctx context.Context, id string) (PriceListing, error)
	Invalidate(ctx context.Context, id string) error
}

// AnalyticsCache stores computed analytics views with a TTL. Staleness up
// to the TTL is acceptable; these are reporting views.
type AnalyticsCache interface {
	Set(ctx context.Context, listingID string, v AnalyticsView) error
	Get(ctx context.Context, listingID string) (AnalyticsView, error)
	Invalidate(ctx context.Context, listingID string) error
}

// LockManager provides distributed locking, keyed per listing on the write
// path when the deployment runs more than one writer process. Acquire
// waits for a held lock and gives up with ErrLockHeld only when ctx is
// done, so contending writers serialize rather than fail.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed request rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out of price-change events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/emiafrica/market-intel/internal/domain"
)

const busKeyPrefix = "marketintel:bus:"

// SignalBus fans out price-change events over Redis pub/sub so every
// server process can push them to its own websocket clients.
type SignalBus struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewSignalBus creates a SignalBus over the shared client.
func NewSignalBus(c *Client, logger *slog.Logger) *SignalBus {
	return &SignalBus{rdb: c.RDB(), logger: logger}
}

func (b *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, busKeyPrefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns a channel of raw payloads. The channel closes when
// ctx is cancelled or the pub/sub connection drops.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := b.rdb.Subscribe(ctx, busKeyPrefix+channel)

	// Force the subscription onto the wire before returning so callers
	// never miss messages published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				b.logger.Warn("pubsub close failed", "channel", channel, "error", err)
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var _ domain.SignalBus = (*SignalBus)(nil)

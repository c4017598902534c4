package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emiafrica/market-intel/internal/domain"
)

const (
	lockKeyPrefix     = "marketintel:lock:"
	lockRetryInterval = 50 * time.Millisecond
)

// unlockScript deletes the lock only when the caller still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockManager implements distributed locks with SET NX plus a token
// checked on release.
type LockManager struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewLockManager creates a LockManager over the shared client.
func NewLockManager(c *Client, logger *slog.Logger) *LockManager {
	return &LockManager{rdb: c.RDB(), logger: logger}
}

// Acquire takes the lock, polling while another holder has it. It returns
// domain.ErrLockHeld only once ctx is done, so contending writers queue up
// instead of failing. The returned unlock func is safe to call after the
// TTL expired.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	full := lockKeyPrefix + key

	for {
		ok, err := m.rdb.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis: acquire lock %s: %w", key, domain.ErrLockHeld)
		case <-time.After(lockRetryInterval):
		}
	}

	unlock := func() {
		// Release runs on its own deadline; the caller's ctx may already
		// be done when the deferred unlock fires.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(relCtx, m.rdb, []string{full}, token).Err(); err != nil {
			m.logger.Warn("lock release failed", "key", key, "error", err)
		}
	}
	return unlock, nil
}

var _ domain.LockManager = (*LockManager)(nil)

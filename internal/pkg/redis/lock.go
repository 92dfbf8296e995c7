package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tenantLockPrefix = "mx:migrate:lock:"

// ErrLockHeld is returned when another run already holds the tenant lock.
var ErrLockHeld = errors.New("migration lock held by another run")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held tenant migration lock.
type Lock struct {
	rdb   *redis.Client
	key   string
	token string
}

func TenantLockKey(tenant string) string {
	return tenantLockPrefix + strings.TrimSpace(tenant)
}

// AcquireTenantLock takes the per-tenant run lock with SET NX and the given TTL.
func (c *Client) AcquireTenantLock(ctx context.Context, tenant string, ttl time.Duration) (*Lock, error) {
	key := TenantLockKey(tenant)
	token := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	return &Lock{rdb: c.rdb, key: key, token: token}, nil
}

// Release drops the lock if it is still ours. Releasing twice is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}

func (l *Lock) Key() string { return l.key }

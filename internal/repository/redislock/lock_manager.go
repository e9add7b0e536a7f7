// Package redislock implements repository.LockManager on Redis so driver
// reservations hold across every instance of the service.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rides/internal/repository"
)

const keyPrefix = "rides:lock:"

var _ repository.LockManager = (*LockManager)(nil)

// releaseScript deletes the key only while it still holds the caller's token,
// so a reservation that expired and was taken by another request is left
// alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockManager takes reservations with SET NX PX. Each acquisition stores a
// fresh token as the value and hands it to the caller, who must present it to
// release.
type LockManager struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *LockManager {
	return &LockManager{client: client}
}

// NewClient builds the go-redis client for addr and checks connectivity.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return c, nil
}

func (lm *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := lm.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (lm *LockManager) ReleaseLock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, lm.client, []string{keyPrefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Package redislock provides a best-effort mutual exclusion lock on Redis so
// that only one replica runs a reconciliation tick at a time.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockLost is returned by unlock when the lock expired before release.
var ErrLockLost = errors.New("lock expired before release")

// Locker acquires short-lived locks with SET NX PX.
type Locker struct {
	client redis.UniversalClient
	prefix string
}

// NewLocker creates a Locker whose keys are namespaced by prefix.
func NewLocker(client redis.UniversalClient, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// TryLock does not block. ok is false when another holder owns key.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if ttl <= 0 {
		return nil, false, fmt.Errorf("lock ttl must be positive, got %s", ttl)
	}

	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", fullKey, err)
		}
		if released == 0 {
			return ErrLockLost
		}
		return nil
	}

	return unlock, true, nil
}

// Ping checks the Redis connection.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

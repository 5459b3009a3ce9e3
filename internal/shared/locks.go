package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClockLockKey builds redis keys for per-worker clock critical sections.
func ClockLockKey(userID int64) string {
	return fmt.Sprintf("clock:user:%d:lock", userID)
}

// ErrLockHeld indicates another request holds the lock.
var ErrLockHeld = errors.New("lock already held")

// RedisLocker provides short-lived exclusive locks backed by SET NX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker constructs the locker. The TTL guards against requests
// that die while holding a lock.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire takes the lock or fails immediately with ErrLockHeld. It returns
// a release function that only deletes the key when the token still matches,
// so an expired lock reacquired by another request is never released here.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		return func(context.Context) error { return nil }, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("shared: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func(ctx context.Context) error {
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		return l.client.Eval(ctx, script, []string{key}, token).Err()
	}
	return release, nil
}

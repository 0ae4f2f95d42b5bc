package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("queue partition lock not acquired")
)

// Locker serializes queue-number allocation for a single (doctor, date)
// partition across all service instances.
type Locker interface {
	WithPartitionLock(ctx context.Context, doctorID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error
}

type redisPartitionLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisPartitionLocker creates a locker that uses one Redis key per
// (doctor, date) partition. Acquisition is retried for at most wait before
// failing with ErrLockNotAcquired.
func NewRedisPartitionLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisPartitionLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

const acquireRetryInterval = 50 * time.Millisecond

func (l *redisPartitionLocker) WithPartitionLock(ctx context.Context, doctorID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:queue:%s:%s", doctorID.String(), date.Format("2006-01-02"))
	token := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire partition lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisPartitionLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release partition lock: %w", err)
	}
	return nil
}

package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the original request is still in flight.
const pendingMarker = "__pending__"

// IdempotencyStore deduplicates retried booking requests for a bounded
// window. A key is claimed with SETNX before the booking runs and fulfilled
// with the appointment id afterwards, so a network-level retry of the same
// logical request returns the original appointment instead of double-booking.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves key for the caller. When the key is already present the
// stored value is returned: the fulfilled appointment id, or pending=true
// if the original request has not finished yet.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (existing string, pending bool, err error) {
	ok, err := s.client.SetNX(ctx, s.redisKey(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return "", false, nil
	}

	val, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Key expired between SetNX and Get; treat as claimed.
			return "", false, nil
		}
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", true, nil
	}
	return val, false, nil
}

// Fulfil records the appointment id produced by the original request.
func (s *IdempotencyStore) Fulfil(ctx context.Context, key, appointmentID string) error {
	if err := s.client.Set(ctx, s.redisKey(key), appointmentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("fulfil idempotency key: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failed booking so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) redisKey(key string) string {
	return "idem:booking:" + key
}

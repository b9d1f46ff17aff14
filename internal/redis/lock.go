package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireOperatorLock attempts to acquire a lock for the given operator,
// preventing two bookings from being assigned to the same operator.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireOperatorLock(ctx context.Context, operatorID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:operator:%s", operatorID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseOperatorLock releases the lock for the given operator.
func (s *LockStore) ReleaseOperatorLock(ctx context.Context, operatorID string) error {
	key := fmt.Sprintf("lock:operator:%s", operatorID)

	return s.client.Del(ctx, key).Err()
}

// AcquireTripLock attempts to acquire a lock for trip matching, so only
// one matching attempt runs per trip at a time.
func (s *LockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:trip:%s", tripID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTripLock releases the matching lock for a trip.
func (s *LockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	key := fmt.Sprintf("lock:trip:%s", tripID)

	return s.client.Del(ctx, key).Err()
}

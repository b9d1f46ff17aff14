package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for operator location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, operatorID string, lat, lng float64) error
	FindNearbyOperators(ctx context.Context, lat, lng, radiusKm float64) ([]OperatorLocation, error)
	GetLocation(ctx context.Context, operatorID string) (*OperatorLocation, error)
	RemoveLocation(ctx context.Context, operatorID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireOperatorLock(ctx context.Context, operatorID string, ttl time.Duration) (bool, error)
	ReleaseOperatorLock(ctx context.Context, operatorID string) error
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)

package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// OperatorCacheTTL is short because operator availability changes often.
const OperatorCacheTTL = 30 * time.Second

const operatorCachePrefix = "cache:operator:"

const availableOperatorsKey = "available_operators"

// CachedOperator represents a cached operator entity.
type CachedOperator struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Status       string `json:"status"`
	VehicleClass string `json:"vehicle_class"`
}

// GetOperator retrieves an operator from cache. A miss returns (nil, nil).
func (s *CacheStore) GetOperator(ctx context.Context, operatorID string) (*CachedOperator, error) {
	key := operatorCachePrefix + operatorID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var op CachedOperator
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// SetOperator stores an operator in cache.
func (s *CacheStore) SetOperator(ctx context.Context, op *CachedOperator) error {
	key := operatorCachePrefix + op.ID
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, OperatorCacheTTL).Err()
}

// InvalidateOperator removes an operator from cache.
func (s *CacheStore) InvalidateOperator(ctx context.Context, operatorID string) error {
	key := operatorCachePrefix + operatorID
	return s.client.Del(ctx, key).Err()
}

// GetOperatorsBatch retrieves multiple operators from cache using a
// pipeline. Returns the hits and the IDs that missed.
func (s *CacheStore) GetOperatorsBatch(ctx context.Context, operatorIDs []string) (map[string]*CachedOperator, []string, error) {
	if len(operatorIDs) == 0 {
		return make(map[string]*CachedOperator), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(operatorIDs))

	for _, id := range operatorIDs {
		cmds[id] = pipe.Get(ctx, operatorCachePrefix+id)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		// Pipelines surface redis.Nil for missing keys; anything else
		// is handled per-command below.
	}

	result := make(map[string]*CachedOperator)
	var missing []string

	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var op CachedOperator
		if err := json.Unmarshal(data, &op); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &op
	}

	return result, missing, nil
}

// AddAvailableOperator adds an operator to the availability set.
func (s *CacheStore) AddAvailableOperator(ctx context.Context, operatorID string) error {
	return s.client.SAdd(ctx, availableOperatorsKey, operatorID).Err()
}

// RemoveAvailableOperator removes an operator from the availability set.
func (s *CacheStore) RemoveAvailableOperator(ctx context.Context, operatorID string) error {
	return s.client.SRem(ctx, availableOperatorsKey, operatorID).Err()
}

// GetAvailableOperators returns all available operator IDs.
func (s *CacheStore) GetAvailableOperators(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, availableOperatorsKey).Result()
}

package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const operatorLocationKey = "operators:locations"

// OperatorLocation represents an operator's last reported position.
type OperatorLocation struct {
	OperatorID string
	Lat        float64
	Lng        float64
}

// LocationStore handles operator location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores an operator's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, operatorID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, operatorLocationKey, &redis.GeoLocation{
		Name:      operatorID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyOperators returns operators within the given radius in
// kilometers, closest first.
func (s *LocationStore) FindNearbyOperators(ctx context.Context, lat, lng, radiusKm float64) ([]OperatorLocation, error) {
	results, err := s.client.GeoRadius(ctx, operatorLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]OperatorLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, OperatorLocation{
			OperatorID: r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
		})
	}

	return locations, nil
}

// GetLocation returns an operator's last known position, or nil if the
// operator has never reported one.
func (s *LocationStore) GetLocation(ctx context.Context, operatorID string) (*OperatorLocation, error) {
	positions, err := s.client.GeoPos(ctx, operatorLocationKey, operatorID).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &OperatorLocation{
		OperatorID: operatorID,
		Lat:        positions[0].Latitude,
		Lng:        positions[0].Longitude,
	}, nil
}

// RemoveLocation removes an operator's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, operatorID string) error {
	return s.client.ZRem(ctx, operatorLocationKey, operatorID).Err()
}

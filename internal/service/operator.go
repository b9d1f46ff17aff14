package service

import (
	"context"

	"github.com/google/uuid"

	"drainflow/internal/domain"
	"drainflow/internal/redis"
	"drainflow/internal/repository"
)

// OperatorService handles operator registration and availability.
type OperatorService struct {
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	operatorRepo  repository.OperatorRepository
}

// NewOperatorService creates a new OperatorService.
func NewOperatorService(
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	operatorRepo repository.OperatorRepository,
) *OperatorService {
	return &OperatorService{
		locationStore: locationStore,
		cacheStore:    cacheStore,
		operatorRepo:  operatorRepo,
	}
}

// RegisterOperatorRequest contains the parameters for registering an operator.
type RegisterOperatorRequest struct {
	Name         string
	Phone        string
	VehicleClass domain.VehicleClass
}

// Register creates a new operator, initially OFFLINE.
func (s *OperatorService) Register(ctx context.Context, req RegisterOperatorRequest) (*domain.Operator, error) {
	operator := &domain.Operator{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Phone:        req.Phone,
		Status:       domain.OperatorStatusOffline,
		VehicleClass: req.VehicleClass,
	}
	if err := s.operatorRepo.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

// Get retrieves an operator by ID.
func (s *OperatorService) Get(ctx context.Context, operatorID string) (*domain.Operator, error) {
	if operatorID == "" {
		return nil, ErrInvalidOperatorID
	}
	return s.operatorRepo.GetByID(ctx, operatorID)
}

// UpdateLocationRequest contains the parameters for updating operator location.
type UpdateLocationRequest struct {
	OperatorID string
	Location   domain.Coordinate
}

// UpdateLocation records an operator's position in the GEO index and sets
// them ONLINE. Operators report positions between jobs through this path;
// mid-trip positions flow through the tracking service instead.
func (s *OperatorService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.OperatorID == "" {
		return ErrInvalidOperatorID
	}
	if err := req.Location.Validate(); err != nil {
		return ErrInvalidLocation
	}

	// Redis GEO is the primary store for real-time positions.
	if err := s.locationStore.UpdateLocation(ctx, req.OperatorID, req.Location.Lat, req.Location.Lng); err != nil {
		return err
	}

	err := s.operatorRepo.UpdateStatus(ctx, req.OperatorID, domain.OperatorStatusOnline)
	if err != nil && err != repository.ErrNotFound {
		return err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.AddAvailableOperator(ctx, req.OperatorID)

		operator, err := s.operatorRepo.GetByID(ctx, req.OperatorID)
		if err == nil {
			cached := &redis.CachedOperator{
				ID:           operator.ID,
				Name:         operator.Name,
				Phone:        operator.Phone,
				Status:       string(operator.Status),
				VehicleClass: string(operator.VehicleClass),
			}
			_ = s.cacheStore.SetOperator(ctx, cached)
		}
	}

	return nil
}

// SetOffline takes an operator out of rotation.
func (s *OperatorService) SetOffline(ctx context.Context, operatorID string) error {
	if operatorID == "" {
		return ErrInvalidOperatorID
	}

	if err := s.operatorRepo.UpdateStatus(ctx, operatorID, domain.OperatorStatusOffline); err != nil {
		return err
	}

	if err := s.locationStore.RemoveLocation(ctx, operatorID); err != nil {
		return err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateOperator(ctx, operatorID)
		_ = s.cacheStore.RemoveAvailableOperator(ctx, operatorID)
	}

	return nil
}

package service

import (
	"context"
	"database/sql"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/lifecycle"
	"drainflow/internal/redis"
	"drainflow/internal/repository"
	"drainflow/internal/repository/postgres"
)

const (
	defaultSearchRadiusKm = 5.0
	operatorLockTTL       = 10 * time.Second
	tripLockTTL           = 30 * time.Second // Lock trip during matching
)

// MatchingService assigns an available operator to a requested trip.
type MatchingService struct {
	db            *sql.DB
	locationStore redis.LocationStoreInterface
	lockStore     redis.LockStoreInterface
	cacheStore    *redis.CacheStore
	operatorRepo  repository.OperatorRepository
	registry      *Registry
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	db *sql.DB,
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	operatorRepo repository.OperatorRepository,
	registry *Registry,
) *MatchingService {
	return &MatchingService{
		db:            db,
		locationStore: locationStore,
		lockStore:     lockStore,
		cacheStore:    cacheStore,
		operatorRepo:  operatorRepo,
		registry:      registry,
	}
}

// MatchRequest contains the parameters for matching a trip.
type MatchRequest struct {
	TripID       string
	Site         domain.Coordinate
	VehicleClass domain.VehicleClass // Optional: empty means any class
	RadiusKm     float64             // Optional: 0 uses default
}

// MatchResult contains the result of a successful match.
type MatchResult struct {
	OperatorID string
	Operator   *domain.Operator
}

// Match finds the nearest eligible operator and assigns them to the trip.
//
// The trip is locked in Redis so concurrent matching attempts cannot
// double-assign; candidate operators are fetched from the cache in one
// batch, then re-verified from the database before assignment in case
// the cached status is stale.
func (s *MatchingService) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadiusKm
	}

	// Only one matching attempt runs per trip at a time.
	locked, err := s.lockStore.AcquireTripLock(ctx, req.TripID, tripLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrTripNotInRequestedState
	}
	defer func() { _ = s.lockStore.ReleaseTripLock(ctx, req.TripID) }()

	machine, ok := s.registry.Get(req.TripID)
	if !ok {
		return nil, ErrTripNotFound
	}
	if machine.Snapshot().Status != domain.TripStatusRequested {
		return nil, ErrTripNotInRequestedState
	}

	// Nearest operators first, from the Redis GEO index.
	nearby, err := s.locationStore.FindNearbyOperators(ctx, req.Site.Lat, req.Site.Lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, ErrNoOperatorAvailable
	}

	operatorIDs := make([]string, len(nearby))
	for i, loc := range nearby {
		operatorIDs[i] = loc.OperatorID
	}

	cachedOperators, missingIDs := s.getOperatorsBatch(ctx, operatorIDs)

	dbOperators := make(map[string]*domain.Operator)
	for _, id := range missingIDs {
		operator, err := s.operatorRepo.GetByID(ctx, id)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return nil, err
		}
		dbOperators[id] = operator
		s.cacheOperatorAsync(operator)
	}

	// Try each operator in order of proximity.
	for _, loc := range nearby {
		operatorID := loc.OperatorID

		var operator *domain.Operator
		if cached, ok := cachedOperators[operatorID]; ok {
			if cached.Status != string(domain.OperatorStatusOnline) {
				continue
			}
			if req.VehicleClass != "" && cached.VehicleClass != string(req.VehicleClass) {
				continue
			}
			operator = s.cachedToOperator(cached)
		} else if dbOperator, ok := dbOperators[operatorID]; ok {
			operator = dbOperator
		} else {
			continue
		}

		if operator.Status != domain.OperatorStatusOnline {
			continue
		}
		if req.VehicleClass != "" && operator.VehicleClass != req.VehicleClass {
			continue
		}

		locked, err := s.lockStore.AcquireOperatorLock(ctx, operatorID, operatorLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			// Operator is being assigned to another trip.
			continue
		}

		// Re-verify from the database in case the cached status is stale.
		fresh, err := s.operatorRepo.GetByID(ctx, operatorID)
		if err != nil {
			_ = s.lockStore.ReleaseOperatorLock(ctx, operatorID)
			if err == repository.ErrNotFound {
				continue
			}
			return nil, err
		}
		if fresh.Status != domain.OperatorStatusOnline {
			_ = s.lockStore.ReleaseOperatorLock(ctx, operatorID)
			s.invalidateOperatorCache(ctx, operatorID)
			continue
		}

		if err := s.assignOperator(ctx, machine, fresh); err != nil {
			_ = s.lockStore.ReleaseOperatorLock(ctx, operatorID)
			return nil, err
		}

		s.invalidateOperatorCache(ctx, operatorID)

		// Success; the operator lock expires via TTL.
		return &MatchResult{OperatorID: fresh.ID, Operator: fresh}, nil
	}

	return nil, ErrNoOperatorAvailable
}

// assignOperator marks the operator ON_JOB and drives the trip to MATCHED.
func (s *MatchingService) assignOperator(ctx context.Context, machine *lifecycle.StateMachine, operator *domain.Operator) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txOperatorRepo := postgres.NewOperatorRepositoryWithTx(tx)
	if err = txOperatorRepo.UpdateStatus(ctx, operator.ID, domain.OperatorStatusOnJob); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	if err := machine.MatchFound(operator.ID); err != nil {
		// The trip left REQUESTED while we held its lock only if it was
		// cancelled; put the operator back in rotation.
		_ = s.operatorRepo.UpdateStatus(ctx, operator.ID, domain.OperatorStatusOnline)
		return err
	}

	operator.Status = domain.OperatorStatusOnJob
	return nil
}

// getOperatorsBatch fetches operators from cache in one round trip.
func (s *MatchingService) getOperatorsBatch(ctx context.Context, operatorIDs []string) (map[string]*redis.CachedOperator, []string) {
	if s.cacheStore == nil {
		return make(map[string]*redis.CachedOperator), operatorIDs
	}
	cached, missing, err := s.cacheStore.GetOperatorsBatch(ctx, operatorIDs)
	if err != nil {
		return make(map[string]*redis.CachedOperator), operatorIDs
	}
	return cached, missing
}

// cacheOperatorAsync caches an operator without blocking the match loop.
func (s *MatchingService) cacheOperatorAsync(operator *domain.Operator) {
	if s.cacheStore == nil {
		return
	}
	go func() {
		cached := &redis.CachedOperator{
			ID:           operator.ID,
			Name:         operator.Name,
			Phone:        operator.Phone,
			Status:       string(operator.Status),
			VehicleClass: string(operator.VehicleClass),
		}
		_ = s.cacheStore.SetOperator(context.Background(), cached)
	}()
}

// cachedToOperator converts a cached operator to a domain operator.
func (s *MatchingService) cachedToOperator(cached *redis.CachedOperator) *domain.Operator {
	return &domain.Operator{
		ID:           cached.ID,
		Name:         cached.Name,
		Phone:        cached.Phone,
		Status:       domain.OperatorStatus(cached.Status),
		VehicleClass: domain.VehicleClass(cached.VehicleClass),
	}
}

// invalidateOperatorCache drops an operator's cache entry and availability.
func (s *MatchingService) invalidateOperatorCache(ctx context.Context, operatorID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateOperator(ctx, operatorID)
	_ = s.cacheStore.RemoveAvailableOperator(ctx, operatorID)
}

package service

import (
	"context"
	"sync"
	"time"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
	"drainflow/internal/eta"
	"drainflow/internal/feed"
	"drainflow/internal/lifecycle"
	"drainflow/internal/redis"
	"drainflow/internal/repository"
)

// Registry holds the state machines of all in-flight trips. Terminal
// trips are removed; their history lives in the trip record store.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*lifecycle.StateMachine
}

// NewRegistry creates an empty trip registry.
func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*lifecycle.StateMachine)}
}

// Add registers a machine under its trip ID.
func (r *Registry) Add(tripID string, m *lifecycle.StateMachine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[tripID] = m
}

// Get returns the machine for a trip, if the trip is still active.
func (r *Registry) Get(tripID string) (*lifecycle.StateMachine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[tripID]
	return m, ok
}

// Remove drops a machine from the registry.
func (r *Registry) Remove(tripID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, tripID)
}

// Active returns snapshots of every in-flight trip.
func (r *Registry) Active() []lifecycle.Snapshot {
	r.mu.RLock()
	machines := make([]*lifecycle.StateMachine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	snaps := make([]lifecycle.Snapshot, 0, len(machines))
	for _, m := range machines {
		snaps = append(snaps, m.Snapshot())
	}
	return snaps
}

// SnapshotPublisher pushes trip snapshots to live-tracking consumers.
type SnapshotPublisher interface {
	PublishSnapshot(tripID string, snap lifecycle.Snapshot)
}

// TrackingConfig carries the live-tracking tuning knobs.
type TrackingConfig struct {
	ArrivalThresholdM  float64
	AssumedSpeedKmh    float64
	MinSampleInterval  time.Duration
	MinSampleDistanceM float64
	SimTick            time.Duration
	SimStepFraction    float64
	SimJitterDeg       float64
}

// TrackingService owns the active trip machines and their position
// feeds. It is the only writer of trip state after booking.
type TrackingService struct {
	cfg           TrackingConfig
	clk           clock.Clock
	registry      *Registry
	records       repository.TripRecordStore
	billing       *BillingCalculator
	operatorRepo  repository.OperatorRepository
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	publisher     SnapshotPublisher
	notifier      *NotificationService

	mu        sync.Mutex
	liveFeeds map[string]*feed.LiveFeed
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	cfg TrackingConfig,
	clk clock.Clock,
	registry *Registry,
	records repository.TripRecordStore,
	billing *BillingCalculator,
	operatorRepo repository.OperatorRepository,
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	publisher SnapshotPublisher,
	notifier *NotificationService,
) *TrackingService {
	if clk == nil {
		clk = clock.System()
	}
	return &TrackingService{
		cfg:           cfg,
		clk:           clk,
		registry:      registry,
		records:       records,
		billing:       billing,
		operatorRepo:  operatorRepo,
		locationStore: locationStore,
		cacheStore:    cacheStore,
		publisher:     publisher,
		notifier:      notifier,
		liveFeeds:     make(map[string]*feed.LiveFeed),
	}
}

// Register wraps a freshly booked trip in a state machine and adds it to
// the registry. Each trip gets its own ETA estimator so estimates from
// concurrent trips never bleed into each other.
func (s *TrackingService) Register(trip *domain.Trip) *lifecycle.StateMachine {
	machine := lifecycle.New(trip, lifecycle.Config{
		Clock:             s.clk,
		ETA:               eta.NewEstimator(s.cfg.AssumedSpeedKmh),
		ArrivalThresholdM: s.cfg.ArrivalThresholdM,
		Charge:            s.billing.ComputeCharge,
		Records:           s.records,
		OnChange: func(snap lifecycle.Snapshot) {
			if s.publisher != nil {
				s.publisher.PublishSnapshot(trip.ID, snap)
			}
		},
	})
	s.registry.Add(trip.ID, machine)
	return machine
}

// Active returns snapshots of every in-flight trip, for the dispatch
// overview. Terminal trips are served by the history views instead.
func (s *TrackingService) Active() []lifecycle.Snapshot {
	return s.registry.Active()
}

// Snapshot returns the current view of an active trip.
func (s *TrackingService) Snapshot(tripID string) (lifecycle.Snapshot, error) {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return lifecycle.Snapshot{}, ErrTripNotFound
	}
	return machine.Snapshot(), nil
}

// StartTravelRequest contains the parameters for starting travel.
type StartTravelRequest struct {
	TripID     string
	OperatorID string

	// Simulate replaces the operator's live feed with a simulated one
	// that converges on the site. Used for demos and load tests.
	Simulate bool
}

// StartTravel drives the trip to EN_ROUTE and attaches its position feed.
func (s *TrackingService) StartTravel(ctx context.Context, req StartTravelRequest) error {
	if req.TripID == "" {
		return ErrInvalidTripID
	}

	machine, ok := s.registry.Get(req.TripID)
	if !ok {
		return ErrTripNotFound
	}

	snap := machine.Snapshot()
	if req.OperatorID != "" && snap.OperatorID != req.OperatorID {
		return ErrOperatorNotOnTrip
	}

	// The operator's last known GEO position seeds the track so the
	// customer sees a pin the moment travel starts.
	var seed *domain.PositionSample
	last, err := s.locationStore.GetLocation(ctx, snap.OperatorID)
	if err == nil && last != nil {
		seed = &domain.PositionSample{
			Coordinate: domain.Coordinate{Lat: last.Lat, Lng: last.Lng},
			CapturedAt: s.clk.Now(),
		}
	}

	if req.Simulate {
		if seed == nil {
			return ErrInvalidLocation
		}
		sim := feed.NewSimulatedFeed(seed.Coordinate, snap.Site, feed.SimulatedFeedConfig{
			Tick:         s.cfg.SimTick,
			StepFraction: s.cfg.SimStepFraction,
			JitterDeg:    s.cfg.SimJitterDeg,
		}, s.clk)
		return machine.StartTravel(sim, seed)
	}

	live := feed.NewLiveFeed(feed.LiveFeedConfig{
		MinInterval:  s.cfg.MinSampleInterval,
		MinDistanceM: s.cfg.MinSampleDistanceM,
	})
	if err := machine.StartTravel(live, seed); err != nil {
		return err
	}

	s.mu.Lock()
	s.liveFeeds[req.TripID] = live
	s.mu.Unlock()
	return nil
}

// PushPosition feeds one live GPS report from the operator's device into
// the trip's feed and refreshes the GEO index.
func (s *TrackingService) PushPosition(ctx context.Context, tripID, operatorID string, coord domain.Coordinate) error {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return ErrTripNotFound
	}
	if machine.Snapshot().OperatorID != operatorID {
		return ErrOperatorNotOnTrip
	}

	s.mu.Lock()
	live, ok := s.liveFeeds[tripID]
	s.mu.Unlock()
	if !ok {
		return ErrTripNotFound
	}

	if err := live.Push(domain.PositionSample{Coordinate: coord, CapturedAt: s.clk.Now()}); err != nil {
		return err
	}

	// Keep the GEO index current while on the move; best effort.
	_ = s.locationStore.UpdateLocation(ctx, operatorID, coord.Lat, coord.Lng)
	return nil
}

// MarkArrived records a manual arrival confirmation from the operator.
// It exists for GPS dead zones where the feed cannot cross the arrival
// threshold on its own.
func (s *TrackingService) MarkArrived(tripID string) error {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return ErrTripNotFound
	}
	return machine.MarkArrived()
}

// BeginService starts the on-site service window.
func (s *TrackingService) BeginService(tripID string) error {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return ErrTripNotFound
	}
	return machine.BeginService()
}

// FinishService completes the trip, prices the service window, appends
// the record and retires the machine.
func (s *TrackingService) FinishService(ctx context.Context, tripID string) (*domain.Trip, error) {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return nil, ErrTripNotFound
	}

	trip, err := machine.FinishService(ctx)
	if err != nil {
		return nil, err
	}

	s.retire(ctx, tripID, trip.OperatorID)

	if s.notifier != nil {
		_ = s.notifier.NotifyTripCompleted(ctx, trip)
	}
	return trip, nil
}

// Cancel aborts the trip from any non-terminal status.
func (s *TrackingService) Cancel(ctx context.Context, tripID, reason string) error {
	machine, ok := s.registry.Get(tripID)
	if !ok {
		return ErrTripNotFound
	}

	if err := machine.Cancel(ctx, reason); err != nil {
		return err
	}

	snap := machine.Snapshot()
	s.retire(ctx, tripID, snap.OperatorID)

	if s.notifier != nil {
		_ = s.notifier.NotifyTripCancelled(ctx, snap.TripID, snap.CustomerID, snap.OperatorID, reason)
	}
	return nil
}

// retire drops the trip's feed and machine and puts the operator back in
// rotation.
func (s *TrackingService) retire(ctx context.Context, tripID, operatorID string) {
	s.mu.Lock()
	delete(s.liveFeeds, tripID)
	s.mu.Unlock()

	s.registry.Remove(tripID)

	if operatorID == "" {
		return
	}
	err := s.operatorRepo.UpdateStatus(ctx, operatorID, domain.OperatorStatusOnline)
	if err != nil && err != repository.ErrNotFound {
		return
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateOperator(ctx, operatorID)
		_ = s.cacheStore.AddAvailableOperator(ctx, operatorID)
	}
}

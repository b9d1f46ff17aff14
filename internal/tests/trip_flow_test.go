package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
	"drainflow/internal/lifecycle"
	"drainflow/internal/service"
)

// Site used across the flow tests.
var testSite = domain.Coordinate{Lat: 10.7732, Lng: 79.6368}

// pointAtKm returns a coordinate the given distance due north of the site.
func pointAtKm(km float64) domain.Coordinate {
	return domain.Coordinate{Lat: testSite.Lat + km/111.32, Lng: testSite.Lng}
}

// testMatcher assigns a fixed operator without touching Postgres or Redis.
type testMatcher struct {
	operatorRepo *MockOperatorRepository
	registry     *service.Registry
	operatorID   string

	// Error injection
	MatchError error
}

func (m *testMatcher) Match(ctx context.Context, req service.MatchRequest) (*service.MatchResult, error) {
	if m.MatchError != nil {
		return nil, m.MatchError
	}
	machine, ok := m.registry.Get(req.TripID)
	if !ok {
		return nil, service.ErrTripNotFound
	}
	operator, err := m.operatorRepo.GetByID(ctx, m.operatorID)
	if err != nil {
		return nil, service.ErrNoOperatorAvailable
	}
	if err := m.operatorRepo.UpdateStatus(ctx, operator.ID, domain.OperatorStatusOnJob); err != nil {
		return nil, err
	}
	if err := machine.MatchFound(operator.ID); err != nil {
		return nil, err
	}
	return &service.MatchResult{OperatorID: operator.ID, Operator: operator}, nil
}

// testStack wires the booking and tracking services against mocks.
type testStack struct {
	customerRepo  *MockCustomerRepository
	operatorRepo  *MockOperatorRepository
	recordStore   *MockTripRecordStore
	locationStore *MockLocationStore
	registry      *service.Registry
	tracking      *service.TrackingService
	booking       *service.BookingService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	customerRepo := NewMockCustomerRepository()
	operatorRepo := NewMockOperatorRepository()
	recordStore := NewMockTripRecordStore()
	locationStore := NewMockLocationStore()
	registry := service.NewRegistry()

	billing, err := service.NewBillingCalculator(25, 18)
	if err != nil {
		t.Fatalf("NewBillingCalculator: %v", err)
	}

	tracking := service.NewTrackingService(
		service.TrackingConfig{
			ArrivalThresholdM: 50,
			AssumedSpeedKmh:   30,
		},
		clock.System(), registry, recordStore, billing,
		operatorRepo, locationStore, nil, nil, nil,
	)

	matcher := &testMatcher{
		operatorRepo: operatorRepo,
		registry:     registry,
		operatorID:   "op-1",
	}
	booking := service.NewBookingService(clock.System(), customerRepo, tracking, matcher, nil)

	customerRepo.AddCustomer(&domain.Customer{ID: "cust-1", Name: "Asha", Phone: "+911000000001"})
	operatorRepo.AddOperator(&domain.Operator{
		ID:           "op-1",
		Name:         "Ravi",
		Phone:        "+911000000002",
		Status:       domain.OperatorStatusOnline,
		VehicleClass: domain.VehicleClassJetterVan,
	})
	start := pointAtKm(1.2)
	if err := locationStore.UpdateLocation(context.Background(), "op-1", start.Lat, start.Lng); err != nil {
		t.Fatalf("seed operator location: %v", err)
	}

	return &testStack{
		customerRepo:  customerRepo,
		operatorRepo:  operatorRepo,
		recordStore:   recordStore,
		locationStore: locationStore,
		registry:      registry,
		tracking:      tracking,
		booking:       booking,
	}
}

func TestTripFlow_BookingToCompletion(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	// Book.
	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if !result.OperatorAssigned || result.OperatorID != "op-1" {
		t.Fatalf("expected op-1 assigned, got %+v", result)
	}
	if result.Trip.Status != domain.TripStatusMatched {
		t.Fatalf("status = %s, want MATCHED", result.Trip.Status)
	}
	if op := stack.operatorRepo.GetOperator("op-1"); op.Status != domain.OperatorStatusOnJob {
		t.Fatalf("operator status = %s, want ON_JOB", op.Status)
	}
	tripID := result.Trip.TripID

	// Start travel on a live feed; the track is seeded from the GEO index.
	err = stack.tracking.StartTravel(ctx, service.StartTravelRequest{TripID: tripID, OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("StartTravel: %v", err)
	}
	snap, err := stack.tracking.Snapshot(tripID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Status != domain.TripStatusEnRoute {
		t.Fatalf("status = %s, want EN_ROUTE", snap.Status)
	}
	if len(snap.Track) == 0 {
		t.Fatal("track should be seeded at EN_ROUTE")
	}

	// Approach: 0.3 km out, then on the doorstep.
	if err := stack.tracking.PushPosition(ctx, tripID, "op-1", pointAtKm(0.3)); err != nil {
		t.Fatalf("PushPosition: %v", err)
	}
	snap, _ = stack.tracking.Snapshot(tripID)
	if snap.Status != domain.TripStatusEnRoute {
		t.Fatalf("status = %s, want EN_ROUTE before threshold", snap.Status)
	}
	if snap.ETAMinutes < 1 {
		t.Errorf("ETAMinutes = %v, want >= 1", snap.ETAMinutes)
	}

	if err := stack.tracking.PushPosition(ctx, tripID, "op-1", pointAtKm(0.0004)); err != nil {
		t.Fatalf("PushPosition: %v", err)
	}
	snap, _ = stack.tracking.Snapshot(tripID)
	if snap.Status != domain.TripStatusArrived {
		t.Fatalf("status = %s, want ARRIVED inside threshold", snap.Status)
	}

	// Service window.
	if err := stack.tracking.BeginService(tripID); err != nil {
		t.Fatalf("BeginService: %v", err)
	}
	trip, err := stack.tracking.FinishService(ctx, tripID)
	if err != nil {
		t.Fatalf("FinishService: %v", err)
	}

	if trip.Status != domain.TripStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", trip.Status)
	}
	if trip.Charge == nil {
		t.Fatal("completed trip must carry a charge")
	}
	if trip.Charge.Minutes < 1 {
		t.Errorf("Minutes = %d, want >= 1", trip.Charge.Minutes)
	}
	if trip.Charge.TotalAmount != trip.Charge.BaseAmount+trip.Charge.TaxAmount {
		t.Errorf("total %v != base %v + tax %v", trip.Charge.TotalAmount, trip.Charge.BaseAmount, trip.Charge.TaxAmount)
	}

	// The record store holds exactly the terminal trip; the machine is gone.
	if n := stack.recordStore.CountRecords(); n != 1 {
		t.Fatalf("records = %d, want 1", n)
	}
	if _, err := stack.tracking.Snapshot(tripID); !errors.Is(err, service.ErrTripNotFound) {
		t.Errorf("Snapshot after completion: err = %v, want ErrTripNotFound", err)
	}
	if op := stack.operatorRepo.GetOperator("op-1"); op.Status != domain.OperatorStatusOnline {
		t.Errorf("operator status = %s, want ONLINE after completion", op.Status)
	}
}

func TestTripFlow_FinishRetryAfterRecordStoreOutage(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	if err := stack.tracking.StartTravel(ctx, service.StartTravelRequest{TripID: tripID, OperatorID: "op-1"}); err != nil {
		t.Fatalf("StartTravel: %v", err)
	}
	if err := stack.tracking.PushPosition(ctx, tripID, "op-1", pointAtKm(0.0004)); err != nil {
		t.Fatalf("PushPosition: %v", err)
	}
	if err := stack.tracking.BeginService(tripID); err != nil {
		t.Fatalf("BeginService: %v", err)
	}

	// Record store goes down across the completion.
	stack.recordStore.AppendError = errors.New("connection refused")
	if _, err := stack.tracking.FinishService(ctx, tripID); !errors.Is(err, lifecycle.ErrRecordAppend) {
		t.Fatalf("finish during outage: err = %v, want ErrRecordAppend", err)
	}
	if stack.recordStore.CountRecords() != 0 {
		t.Fatalf("records = %d, want 0 during outage", stack.recordStore.CountRecords())
	}

	// The trip must stay live so the completion can be retried: still in
	// the registry, already COMPLETED, operator not yet released.
	snap, err := stack.tracking.Snapshot(tripID)
	if err != nil {
		t.Fatalf("Snapshot during outage: %v", err)
	}
	if snap.Status != domain.TripStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", snap.Status)
	}
	if op := stack.operatorRepo.GetOperator("op-1"); op.Status != domain.OperatorStatusOnJob {
		t.Fatalf("operator status = %s, want ON_JOB until the record is durable", op.Status)
	}

	// Store recovers; the retried finish lands the record and retires the trip.
	stack.recordStore.AppendError = nil
	trip, err := stack.tracking.FinishService(ctx, tripID)
	if err != nil {
		t.Fatalf("retried finish: %v", err)
	}
	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", trip.Status)
	}
	if trip.Charge == nil {
		t.Error("completed trip must carry a charge")
	}
	if stack.recordStore.CountRecords() != 1 {
		t.Errorf("records = %d, want 1 after retry", stack.recordStore.CountRecords())
	}
	if _, err := stack.tracking.Snapshot(tripID); !errors.Is(err, service.ErrTripNotFound) {
		t.Errorf("Snapshot after retry: err = %v, want ErrTripNotFound", err)
	}
	if op := stack.operatorRepo.GetOperator("op-1"); op.Status != domain.OperatorStatusOnline {
		t.Errorf("operator status = %s, want ONLINE after retry", op.Status)
	}
}

func TestTripFlow_MidServicePositionExtendsTrack(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	if err := stack.tracking.StartTravel(ctx, service.StartTravelRequest{TripID: tripID, OperatorID: "op-1"}); err != nil {
		t.Fatalf("StartTravel: %v", err)
	}
	if err := stack.tracking.PushPosition(ctx, tripID, "op-1", pointAtKm(0.0004)); err != nil {
		t.Fatalf("PushPosition: %v", err)
	}
	if err := stack.tracking.BeginService(tripID); err != nil {
		t.Fatalf("BeginService: %v", err)
	}

	before, _ := stack.tracking.Snapshot(tripID)

	// The operator moving around the site mid-service still reports in.
	onSite := pointAtKm(0.0002)
	if err := stack.tracking.PushPosition(ctx, tripID, "op-1", onSite); err != nil {
		t.Fatalf("PushPosition mid-service: %v", err)
	}

	after, _ := stack.tracking.Snapshot(tripID)
	if len(after.Track) != len(before.Track)+1 {
		t.Errorf("track length = %d, want %d after mid-service sample", len(after.Track), len(before.Track)+1)
	}

	// The GEO index follows the mid-service report too.
	loc, err := stack.locationStore.GetLocation(ctx, "op-1")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if loc == nil || loc.Lat != onSite.Lat || loc.Lng != onSite.Lng {
		t.Errorf("GEO index = %+v, want %+v", loc, onSite)
	}
}

func TestTripFlow_ActiveListsInFlightTrips(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	active := stack.tracking.Active()
	if len(active) != 1 {
		t.Fatalf("active trips = %d, want 1", len(active))
	}
	if active[0].TripID != tripID {
		t.Errorf("active trip = %s, want %s", active[0].TripID, tripID)
	}

	if err := stack.tracking.Cancel(ctx, tripID, "duplicate booking"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := stack.tracking.Active(); len(got) != 0 {
		t.Errorf("active trips after cancel = %d, want 0", len(got))
	}
}

func TestTripFlow_CancelReleasesOperator(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	if err := stack.tracking.Cancel(ctx, tripID, "customer changed plans"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	record := stack.recordStore.GetRecord(tripID)
	if record == nil {
		t.Fatal("cancelled trip must be recorded")
	}
	if record.Status != domain.TripStatusCancelled {
		t.Fatalf("record status = %s, want CANCELLED", record.Status)
	}
	if record.Charge != nil {
		t.Error("cancelled trip must not carry a charge")
	}
	if record.CancelReason != "customer changed plans" {
		t.Errorf("cancel reason = %q", record.CancelReason)
	}
	if op := stack.operatorRepo.GetOperator("op-1"); op.Status != domain.OperatorStatusOnline {
		t.Errorf("operator status = %s, want ONLINE after cancel", op.Status)
	}
	if _, err := stack.tracking.Snapshot(tripID); !errors.Is(err, service.ErrTripNotFound) {
		t.Errorf("Snapshot after cancel: err = %v, want ErrTripNotFound", err)
	}
}

func TestTripFlow_NoOperatorLeavesTripRequested(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	matcher := &testMatcher{MatchError: service.ErrNoOperatorAvailable}
	booking := service.NewBookingService(clock.System(), stack.customerRepo, stack.tracking, matcher, nil)

	result, err := booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if result.OperatorAssigned {
		t.Fatal("no operator should be assigned")
	}
	if result.Trip.Status != domain.TripStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", result.Trip.Status)
	}

	// The trip stays in the registry awaiting a retry.
	if _, err := stack.tracking.Snapshot(result.Trip.TripID); err != nil {
		t.Errorf("Snapshot: %v", err)
	}
}

func TestTripFlow_WrongOperatorCannotPush(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	err = stack.tracking.StartTravel(ctx, service.StartTravelRequest{TripID: tripID, OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("StartTravel: %v", err)
	}

	err = stack.tracking.PushPosition(ctx, tripID, "op-2", pointAtKm(0.5))
	if !errors.Is(err, service.ErrOperatorNotOnTrip) {
		t.Fatalf("err = %v, want ErrOperatorNotOnTrip", err)
	}
}

func TestTripFlow_SimulatedFeedReachesSite(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t)

	billing, _ := service.NewBillingCalculator(25, 18)
	tracking := service.NewTrackingService(
		service.TrackingConfig{
			ArrivalThresholdM: 50,
			AssumedSpeedKmh:   30,
			SimTick:           5 * time.Millisecond,
			SimStepFraction:   0.5,
		},
		clock.System(), stack.registry, stack.recordStore, billing,
		stack.operatorRepo, stack.locationStore, nil, nil, nil,
	)

	result, err := stack.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID: "cust-1",
		Site:       testSite,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	tripID := result.Trip.TripID

	err = tracking.StartTravel(ctx, service.StartTravelRequest{TripID: tripID, OperatorID: "op-1", Simulate: true})
	if err != nil {
		t.Fatalf("StartTravel: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		snap, err := tracking.Snapshot(tripID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.Status == domain.TripStatusArrived {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("trip never arrived; status=%s track=%d", snap.Status, len(snap.Track))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

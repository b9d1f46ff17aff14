package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/redis"
)

func TestMatchingLogic_FiltersOfflineOperators(t *testing.T) {
	ctx := context.Background()

	operatorRepo := NewMockOperatorRepository()
	locationStore := NewMockLocationStore()

	operatorRepo.AddOperator(&domain.Operator{
		ID:           "op-offline",
		Status:       domain.OperatorStatusOffline,
		VehicleClass: domain.VehicleClassJetterVan,
	})
	operatorRepo.AddOperator(&domain.Operator{
		ID:           "op-online",
		Status:       domain.OperatorStatusOnline,
		VehicleClass: domain.VehicleClassJetterVan,
	})

	// Offline operator is closer; matching must skip it.
	locationStore.SetLocations([]redis.OperatorLocation{
		{OperatorID: "op-offline", Lat: 10.77, Lng: 79.63},
		{OperatorID: "op-online", Lat: 10.78, Lng: 79.64},
	})

	nearby, err := locationStore.FindNearbyOperators(ctx, 10.77, 79.63, 5.0)
	if err != nil {
		t.Fatalf("FindNearbyOperators: %v", err)
	}

	var matched *domain.Operator
	for _, loc := range nearby {
		operator, err := operatorRepo.GetByID(ctx, loc.OperatorID)
		if err != nil {
			continue
		}
		if operator.Status == domain.OperatorStatusOnline {
			matched = operator
			break
		}
	}

	if matched == nil {
		t.Fatal("expected to match an operator")
	}
	if matched.ID != "op-online" {
		t.Errorf("expected op-online, got %s", matched.ID)
	}
}

func TestMatchingLogic_FiltersByVehicleClass(t *testing.T) {
	ctx := context.Background()

	operatorRepo := NewMockOperatorRepository()
	locationStore := NewMockLocationStore()

	operatorRepo.AddOperator(&domain.Operator{
		ID:           "op-jetter",
		Status:       domain.OperatorStatusOnline,
		VehicleClass: domain.VehicleClassJetterVan,
	})
	operatorRepo.AddOperator(&domain.Operator{
		ID:           "op-suction",
		Status:       domain.OperatorStatusOnline,
		VehicleClass: domain.VehicleClassSuctionTruck,
	})

	locationStore.SetLocations([]redis.OperatorLocation{
		{OperatorID: "op-jetter", Lat: 10.77, Lng: 79.63},
		{OperatorID: "op-suction", Lat: 10.78, Lng: 79.64},
	})

	nearby, err := locationStore.FindNearbyOperators(ctx, 10.77, 79.63, 5.0)
	if err != nil {
		t.Fatalf("FindNearbyOperators: %v", err)
	}

	// Blocked drain needs a suction truck.
	want := domain.VehicleClassSuctionTruck
	var matched *domain.Operator
	for _, loc := range nearby {
		operator, err := operatorRepo.GetByID(ctx, loc.OperatorID)
		if err != nil {
			continue
		}
		if operator.Status != domain.OperatorStatusOnline {
			continue
		}
		if operator.VehicleClass != want {
			continue
		}
		matched = operator
		break
	}

	if matched == nil {
		t.Fatal("expected to match an operator")
	}
	if matched.ID != "op-suction" {
		t.Errorf("expected op-suction, got %s", matched.ID)
	}
}

func TestMatchingLogic_LockPreventsDoubleAssignment(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()

	const operatorID = "op-contested"
	const attempts = 10

	var wg sync.WaitGroup
	var acquired int32
	var acquiredMu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := lockStore.AcquireOperatorLock(ctx, operatorID, 10*time.Second)
			if err != nil {
				t.Errorf("AcquireOperatorLock: %v", err)
				return
			}
			if ok {
				acquiredMu.Lock()
				acquired++
				acquiredMu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Errorf("lock acquired %d times, want exactly 1", acquired)
	}
	if !lockStore.IsOperatorLocked(operatorID) {
		t.Error("operator should remain locked")
	}
}

func TestMatchingLogic_TripLockIsPerTrip(t *testing.T) {
	ctx := context.Background()
	lockStore := NewMockLockStore()

	ok, err := lockStore.AcquireTripLock(ctx, "trip-1", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	// Same trip: held.
	ok, err = lockStore.AcquireTripLock(ctx, "trip-1", 30*time.Second)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Error("second acquire on same trip should fail")
	}

	// Different trip: free.
	ok, err = lockStore.AcquireTripLock(ctx, "trip-2", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("other trip acquire: ok=%v err=%v", ok, err)
	}

	if err := lockStore.ReleaseTripLock(ctx, "trip-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = lockStore.AcquireTripLock(ctx, "trip-1", 30*time.Second)
	if !ok {
		t.Error("acquire after release should succeed")
	}
}

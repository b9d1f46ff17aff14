package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/redis"
	"drainflow/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK OPERATOR REPOSITORY
// ──────────────────────────────────────────────

// MockOperatorRepository is a mock implementation of OperatorRepository.
type MockOperatorRepository struct {
	mu        sync.RWMutex
	operators map[string]*domain.Operator

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockOperatorRepository creates a new mock operator repository.
func NewMockOperatorRepository() *MockOperatorRepository {
	return &MockOperatorRepository{
		operators: make(map[string]*domain.Operator),
	}
}

// AddOperator adds an operator to the mock repository.
func (m *MockOperatorRepository) AddOperator(operator *domain.Operator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operators[operator.ID] = operator
}

func (m *MockOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operators[operator.ID] = operator
	return nil
}

func (m *MockOperatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	operator, ok := m.operators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *operator
	return &copy, nil
}

func (m *MockOperatorRepository) GetByPhone(ctx context.Context, phone string) (*domain.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.operators {
		if o.Phone == phone {
			copy := *o
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockOperatorRepository) GetAll(ctx context.Context) ([]*domain.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Operator, 0, len(m.operators))
	for _, o := range m.operators {
		copy := *o
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockOperatorRepository) UpdateStatus(ctx context.Context, id string, status domain.OperatorStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	operator, ok := m.operators[id]
	if !ok {
		return repository.ErrNotFound
	}
	operator.Status = status
	return nil
}

// GetOperator returns the operator for test assertions.
func (m *MockOperatorRepository) GetOperator(id string) *domain.Operator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operators[id]
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER REPOSITORY
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockCustomerRepository creates a new mock customer repository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
	}
}

// AddCustomer adds a customer to the mock repository.
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *customer
	return &copy, nil
}

func (m *MockCustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.Phone == phone {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		copy := *c
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK TRIP RECORD STORE
// ──────────────────────────────────────────────

// MockTripRecordStore is an in-memory append-only trip record store.
type MockTripRecordStore struct {
	mu      sync.RWMutex
	records []*domain.Trip

	// Counters for verification
	AppendCallCount int32

	// Error injection
	AppendError error
	ListError   error
}

// NewMockTripRecordStore creates a new mock trip record store.
func NewMockTripRecordStore() *MockTripRecordStore {
	return &MockTripRecordStore{}
}

func (m *MockTripRecordStore) Append(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	if !trip.Status.IsTerminal() {
		return repository.ErrNotTerminal
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.records = append(m.records, &copy)
	return nil
}

func (m *MockTripRecordStore) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Trip
	for i := len(m.records) - 1; i >= 0; i-- {
		trip := m.records[i]
		if filter.Status != "" && trip.Status != filter.Status {
			continue
		}
		if filter.OperatorID != "" && trip.OperatorID != filter.OperatorID {
			continue
		}
		if filter.CustomerID != "" && trip.CustomerID != filter.CustomerID {
			continue
		}
		finishedAt := trip.EnteredAt(trip.Status)
		if !filter.From.IsZero() && finishedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && finishedAt.After(filter.To) {
			continue
		}
		copy := *trip
		result = append(result, &copy)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// CountRecords returns the number of appended records.
func (m *MockTripRecordStore) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// GetRecord returns a record by trip ID for assertions.
func (m *MockTripRecordStore) GetRecord(tripID string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, trip := range m.records {
		if trip.ID == tripID {
			return trip
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.OperatorLocation

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError      error
	FindNearbyOperatorsError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.OperatorLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.OperatorLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, operatorID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Update existing or add new.
	for i, loc := range m.locations {
		if loc.OperatorID == operatorID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.OperatorLocation{
		OperatorID: operatorID,
		Lat:        lat,
		Lng:        lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyOperators(ctx context.Context, lat, lng, radiusKm float64) ([]redis.OperatorLocation, error) {
	if m.FindNearbyOperatorsError != nil {
		return nil, m.FindNearbyOperatorsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.OperatorLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, operatorID string) (*redis.OperatorLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.OperatorID == operatorID {
			copy := loc
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.OperatorID == operatorID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if an operator location exists.
func (m *MockLocationStore) HasLocation(operatorID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.OperatorID == operatorID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireOperatorLock(ctx context.Context, operatorID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:operator:"+operatorID, ttl)
}

func (m *MockLockStore) ReleaseOperatorLock(ctx context.Context, operatorID string) error {
	return m.release("lock:operator:" + operatorID)
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:trip:"+tripID, ttl)
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	return m.release("lock:trip:" + tripID)
}

// IsOperatorLocked checks if an operator is locked (for test assertions).
func (m *MockLockStore) IsOperatorLocked(operatorID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:operator:"+operatorID]
	return exists && time.Now().Before(expiry)
}

// ClearLocks clears all locks (for test cleanup).
func (m *MockLockStore) ClearLocks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = make(map[string]time.Time)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)

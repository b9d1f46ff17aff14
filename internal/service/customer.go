package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
	"drainflow/internal/repository"
)

// CustomerService handles customer registration and lookup.
type CustomerService struct {
	clk          clock.Clock
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(clk clock.Clock, customerRepo repository.CustomerRepository) *CustomerService {
	if clk == nil {
		clk = clock.System()
	}
	return &CustomerService{clk: clk, customerRepo: customerRepo}
}

// RegisterCustomerRequest contains the parameters for registering a customer.
type RegisterCustomerRequest struct {
	Name  string
	Phone string
}

// Register creates a new customer.
func (s *CustomerService) Register(ctx context.Context, req RegisterCustomerRequest) (*domain.Customer, error) {
	customer := &domain.Customer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: s.clk.Now().UTC().Truncate(time.Second),
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// List returns all registered customers.
func (s *CustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.customerRepo.GetAll(ctx)
}

// Get retrieves a customer by ID.
func (s *CustomerService) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return s.customerRepo.GetByID(ctx, customerID)
}

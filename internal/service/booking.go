package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
	"drainflow/internal/lifecycle"
	"drainflow/internal/repository"
)

// MatchingServiceInterface defines the matching service contract.
// This interface allows for testing with mock implementations.
type MatchingServiceInterface interface {
	Match(ctx context.Context, req MatchRequest) (*MatchResult, error)
}

// Ensure MatchingService implements MatchingServiceInterface.
var _ MatchingServiceInterface = (*MatchingService)(nil)

// BookingService handles trip creation for customers.
type BookingService struct {
	clk             clock.Clock
	customerRepo    repository.CustomerRepository
	tracking        *TrackingService
	matchingService MatchingServiceInterface
	notifier        *NotificationService
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	clk clock.Clock,
	customerRepo repository.CustomerRepository,
	tracking *TrackingService,
	matchingService MatchingServiceInterface,
	notifier *NotificationService,
) *BookingService {
	if clk == nil {
		clk = clock.System()
	}
	return &BookingService{
		clk:             clk,
		customerRepo:    customerRepo,
		tracking:        tracking,
		matchingService: matchingService,
		notifier:        notifier,
	}
}

// CreateBookingRequest contains the parameters for booking a cleaning.
type CreateBookingRequest struct {
	CustomerID   string
	Site         domain.Coordinate
	VehicleClass domain.VehicleClass // Optional: empty means any class
}

// CreateBookingResponse contains the result of creating a booking.
type CreateBookingResponse struct {
	Trip             lifecycle.Snapshot
	OperatorAssigned bool
	OperatorID       string
}

// CreateBooking creates a new trip at the customer's site and triggers
// matching. If no operator is available the trip stays REQUESTED and
// can be matched again later.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCustomerID
		}
		return nil, err
	}

	trip := &domain.Trip{
		ID:           uuid.New().String(),
		CustomerID:   req.CustomerID,
		VehicleClass: req.VehicleClass,
		Status:       domain.TripStatusRequested,
		Site:         req.Site,
		Timestamps:   make(map[domain.TripStatus]time.Time),
		CreatedAt:    s.clk.Now(),
	}

	machine := s.tracking.Register(trip)

	result, err := s.matchingService.Match(ctx, MatchRequest{
		TripID:       trip.ID,
		Site:         req.Site,
		VehicleClass: req.VehicleClass,
	})
	if err != nil {
		if errors.Is(err, ErrNoOperatorAvailable) {
			return &CreateBookingResponse{Trip: machine.Snapshot()}, nil
		}
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyOperatorAssigned(ctx, machine.Snapshot(), result.Operator)
	}

	return &CreateBookingResponse{
		Trip:             machine.Snapshot(),
		OperatorAssigned: true,
		OperatorID:       result.OperatorID,
	}, nil
}

func (s *BookingService) validateCreateRequest(req CreateBookingRequest) error {
	if req.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if err := req.Site.Validate(); err != nil {
		return ErrInvalidSiteLocation
	}
	return nil
}

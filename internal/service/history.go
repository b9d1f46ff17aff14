package service

import (
	"context"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/repository"
)

// HistoryService reads the append-only trip record store.
type HistoryService struct {
	records repository.TripRecordStore
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(records repository.TripRecordStore) *HistoryService {
	return &HistoryService{records: records}
}

// List retrieves finished trips matching the filter, newest first.
func (s *HistoryService) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	return s.records.List(ctx, filter)
}

// OperatorEarnings summarizes an operator's completed trips in a window.
type OperatorEarnings struct {
	OperatorID     string
	CompletedTrips int
	MinutesBilled  int64
	BaseAmount     float64
	TaxAmount      float64
	TotalAmount    float64
}

// Earnings sums the charges of an operator's completed trips between
// from and to. Cancelled trips carry no charge and are excluded by the
// status filter.
func (s *HistoryService) Earnings(ctx context.Context, operatorID string, from, to time.Time) (*OperatorEarnings, error) {
	if operatorID == "" {
		return nil, ErrInvalidOperatorID
	}

	trips, err := s.records.List(ctx, repository.TripFilter{
		Status:     domain.TripStatusCompleted,
		OperatorID: operatorID,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, err
	}

	earnings := &OperatorEarnings{OperatorID: operatorID}
	for _, trip := range trips {
		if trip.Charge == nil {
			continue
		}
		earnings.CompletedTrips++
		earnings.MinutesBilled += trip.Charge.Minutes
		earnings.BaseAmount += trip.Charge.BaseAmount
		earnings.TaxAmount += trip.Charge.TaxAmount
		earnings.TotalAmount += trip.Charge.TotalAmount
	}
	return earnings, nil
}

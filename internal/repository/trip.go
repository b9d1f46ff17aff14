package repository

import (
	"context"
	"time"

	"drainflow/internal/domain"
)

// TripFilter narrows a trip record listing. Zero values match everything.
type TripFilter struct {
	Status     domain.TripStatus
	OperatorID string
	CustomerID string

	// From/To bound the instant the trip entered its terminal status.
	From time.Time
	To   time.Time

	// Limit caps the number of records returned; 0 uses the store default.
	Limit int
}

// TripRecordStore is the append-only history of finished trips.
//
// There is no update or delete: corrections are modeled as new
// compensating records, never as mutation of history. Append rejects
// trips that are not COMPLETED or CANCELLED with ErrNotTerminal.
type TripRecordStore interface {
	// Append persists a terminal trip record.
	Append(ctx context.Context, trip *domain.Trip) error

	// List retrieves terminal trip records matching the filter, newest first.
	List(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)
}

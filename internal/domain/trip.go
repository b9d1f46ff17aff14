package domain

import "time"

// TripStatus represents the current status of a service trip.
type TripStatus string

const (
	TripStatusRequested TripStatus = "REQUESTED"
	TripStatusMatched   TripStatus = "MATCHED"
	TripStatusEnRoute   TripStatus = "EN_ROUTE"
	TripStatusArrived   TripStatus = "ARRIVED"
	TripStatusInService TripStatus = "IN_SERVICE"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// IsTerminal reports whether the status can never be left again.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// Trip represents one end-to-end drain-cleaning engagement between a
// customer and an operator, from request to completion or cancellation.
//
// A trip is created in REQUESTED when the customer confirms a booking and
// is mutated exclusively through lifecycle.StateMachine transitions.
// Once COMPLETED or CANCELLED it is read-only and handed to the trip
// record store for history.
type Trip struct {
	ID           string
	CustomerID   string
	OperatorID   string
	VehicleClass VehicleClass

	Status TripStatus

	// Site is the customer's drain location, fixed at request time.
	Site Coordinate

	// Track is the operator's accumulated position trail, appended while
	// the trip is EN_ROUTE or IN_SERVICE and never truncated.
	Track []PositionSample

	// Timestamps records the instant each status was first entered.
	// An entry, once written, is immutable.
	Timestamps map[TripStatus]time.Time

	// DurationSeconds is the service time, valid only once both
	// IN_SERVICE and COMPLETED timestamps exist.
	DurationSeconds int64

	// Charge exists if and only if the trip is COMPLETED.
	Charge *Billing

	CancelReason string
	CreatedAt    time.Time
}

// EnteredAt returns the instant the trip first entered the given status,
// or the zero time if it never did.
func (t *Trip) EnteredAt(s TripStatus) time.Time {
	if t.Timestamps == nil {
		return time.Time{}
	}
	return t.Timestamps[s]
}

// Billing is the line-itemized charge for a completed trip.
// Created once by the billing calculator, never mutated.
type Billing struct {
	RatePerMinute float64
	TaxPercent    float64
	Minutes       int64
	BaseAmount    float64
	TaxAmount     float64
	TotalAmount   float64
}

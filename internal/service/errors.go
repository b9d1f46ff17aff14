package service

import "errors"

var (
	// ErrNoOperatorAvailable is returned when no operator can be matched.
	ErrNoOperatorAvailable = errors.New("no operator available")

	// ErrTripNotInRequestedState is returned when trying to match a trip not in REQUESTED state.
	ErrTripNotInRequestedState = errors.New("trip not in requested state")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidOperatorID is returned when operator ID is empty.
	ErrInvalidOperatorID = errors.New("invalid operator id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidSiteLocation is returned when site coordinates are invalid.
	ErrInvalidSiteLocation = errors.New("invalid site location")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrTripNotFound is returned when no active trip exists for the given ID.
	ErrTripNotFound = errors.New("trip not found")

	// ErrOperatorNotOnTrip is returned when an operator reports a position
	// for a trip they are not assigned to.
	ErrOperatorNotOnTrip = errors.New("operator not assigned to this trip")

	// ErrClockInversion is returned when a service finish instant precedes
	// its start instant. Billing refuses to produce a charge from such a
	// pair rather than guessing.
	ErrClockInversion = errors.New("finish instant precedes start instant")

	// ErrInvalidBillingRate is returned when the per-minute rate is not positive.
	ErrInvalidBillingRate = errors.New("invalid billing rate")
)

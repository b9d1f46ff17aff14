package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNotTerminal is returned when a trip that is not COMPLETED or
	// CANCELLED is handed to the record store. History only accepts
	// finished trips.
	ErrNotTerminal = errors.New("trip is not in a terminal status")
)

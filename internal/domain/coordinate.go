package domain

import (
	"errors"
	"time"
)

// ErrInvalidCoordinate is returned when a latitude/longitude pair is out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS-84 point in decimal degrees. Immutable value type.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Validate checks that the coordinate is within valid WGS-84 bounds.
// Feeds validate at their boundary; downstream geo math assumes valid input.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return ErrInvalidCoordinate
	}
	if c.Lng < -180 || c.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// PositionSample is a single position report from a feed.
// Samples are ordered by CapturedAt and never mutated after creation.
type PositionSample struct {
	Coordinate Coordinate
	CapturedAt time.Time
}

// Package eta estimates remaining travel time from straight-line distance
// and an assumed average speed. Suitable for display purposes; a routing
// engine is deliberately out of scope.
package eta

import (
	"math"
	"sync"

	"drainflow/internal/domain"
	"drainflow/internal/geo"
)

// Estimator converts distance to a minutes-remaining estimate.
// The assumed speed is configuration: city driving and final-approach
// speeds differ, so callers pick the value for their leg.
type Estimator struct {
	speedKmh float64

	mu   sync.Mutex
	last float64
}

// defaultSpeedKmh is the fallback assumed speed. A non-positive speed
// would make every estimate infinite.
const defaultSpeedKmh = 30

// NewEstimator creates an Estimator with the given assumed speed in km/h.
// A zero or negative speed falls back to defaultSpeedKmh.
func NewEstimator(assumedSpeedKmh float64) *Estimator {
	if assumedSpeedKmh <= 0 {
		assumedSpeedKmh = defaultSpeedKmh
	}
	return &Estimator{speedKmh: assumedSpeedKmh}
}

// Estimate returns the remaining minutes from current to destination,
// floored at 1 so an adjacent vehicle never shows a zero or negative ETA.
// Recomputed on every position sample.
func (e *Estimator) Estimate(current, destination domain.Coordinate) float64 {
	minutes := math.Round(geo.DistanceKm(current, destination) / e.speedKmh * 60)
	if minutes < 1 {
		minutes = 1
	}

	e.mu.Lock()
	e.last = minutes
	e.mu.Unlock()

	return minutes
}

// Last returns the most recently computed estimate, for display continuity
// when a fresh sample is momentarily unavailable. Zero before any estimate.
func (e *Estimator) Last() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

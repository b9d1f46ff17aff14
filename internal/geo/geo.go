// Package geo provides pure geographic computations for trip tracking.
//
// All distances use the Haversine formula on WGS-84 coordinates. Inputs
// are assumed valid (validated at the feed boundary); out-of-range
// coordinates produce undefined results rather than being clamped.
package geo

import (
	"math"

	"drainflow/internal/domain"
)

// earthRadiusKm is the mean radius of Earth in kilometers.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	rLat1 := degToRad(a.Lat)
	rLat2 := degToRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistanceM returns the great-circle distance between two points in meters.
func DistanceM(a, b domain.Coordinate) float64 {
	return DistanceKm(a, b) * 1000.0
}

// BearingDegrees returns the initial compass bearing in [0, 360) from one
// point toward another, using the forward-azimuth formula.
//
// The bearing is undefined when from == to; callers that animate a marker
// should retain the last known bearing instead of calling this again.
func BearingDegrees(from, to domain.Coordinate) float64 {
	rLat1 := degToRad(from.Lat)
	rLat2 := degToRad(to.Lat)
	dLng := degToRad(to.Lng - from.Lng)

	y := math.Sin(dLng) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) -
		math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLng)

	deg := radToDeg(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// HasArrived reports whether current is within thresholdMeters of target.
// The threshold is an application policy, configured rather than hard-coded.
func HasArrived(current, target domain.Coordinate, thresholdMeters float64) bool {
	return DistanceM(current, target) <= thresholdMeters
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

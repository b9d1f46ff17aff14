package geo

import (
	"math"
	"testing"

	"drainflow/internal/domain"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.Coordinate
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         domain.Coordinate{Lat: 10.7732, Lng: 79.6368},
			b:         domain.Coordinate{Lat: 10.7732, Lng: 79.6368},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Thanjavur to Trichy (~55km)",
			a:         domain.Coordinate{Lat: 10.7870, Lng: 79.1378},
			b:         domain.Coordinate{Lat: 10.7905, Lng: 78.7047},
			wantKm:    47,
			tolerance: 5,
		},
		{
			name:      "Chennai to Bengaluru (~290km)",
			a:         domain.Coordinate{Lat: 13.0827, Lng: 80.2707},
			b:         domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
			wantKm:    290,
			tolerance: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := domain.Coordinate{Lat: 10.0, Lng: 79.0}
	b := domain.Coordinate{Lat: 11.0, Lng: 80.0}
	d1 := DistanceKm(a, b)
	d2 := DistanceKm(b, a)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceM_MatchesKm(t *testing.T) {
	a := domain.Coordinate{Lat: 0, Lng: 0}
	b := domain.Coordinate{Lat: 0.001, Lng: 0}
	km := DistanceKm(a, b)
	m := DistanceM(a, b)
	if math.Abs(m-km*1000) > 0.01 {
		t.Errorf("DistanceM = %v, want DistanceKm*1000 = %v", m, km*1000)
	}
}

func TestBearingDegrees_CardinalDirections(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lng: 0}

	tests := []struct {
		name      string
		to        domain.Coordinate
		want      float64
		tolerance float64
	}{
		{"due north", domain.Coordinate{Lat: 1, Lng: 0}, 0, 0.01},
		{"due east", domain.Coordinate{Lat: 0, Lng: 1}, 90, 0.01},
		{"due south", domain.Coordinate{Lat: -1, Lng: 0}, 180, 0.01},
		{"due west", domain.Coordinate{Lat: 0, Lng: -1}, 270, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDegrees(origin, tt.to)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("BearingDegrees() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestBearingDegrees_Range(t *testing.T) {
	points := []domain.Coordinate{
		{Lat: 10.7732, Lng: 79.6368},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 40.7128, Lng: -74.0060},
	}

	for i, from := range points {
		for j, to := range points {
			if i == j {
				continue
			}
			got := BearingDegrees(from, to)
			if got < 0 || got >= 360 {
				t.Errorf("BearingDegrees(%v, %v) = %f, want [0, 360)", from, to, got)
			}
		}
	}
}

func TestHasArrived_Threshold(t *testing.T) {
	site := domain.Coordinate{Lat: 10.7732, Lng: 79.6368}
	// ~44m north of the site.
	near := domain.Coordinate{Lat: 10.7736, Lng: 79.6368}

	if !HasArrived(near, site, 50) {
		t.Error("expected arrival within 50m threshold")
	}
	if HasArrived(near, site, 10) {
		t.Error("did not expect arrival within 10m threshold")
	}
}

func TestHasArrived_MonotonicInThreshold(t *testing.T) {
	current := domain.Coordinate{Lat: 10.7740, Lng: 79.6368}
	target := domain.Coordinate{Lat: 10.7732, Lng: 79.6368}

	arrived := false
	for threshold := 10.0; threshold <= 200.0; threshold += 10 {
		got := HasArrived(current, target, threshold)
		if arrived && !got {
			t.Fatalf("HasArrived flipped back to false at threshold %.0f", threshold)
		}
		if got {
			arrived = true
		}
	}
	if !arrived {
		t.Error("expected arrival at some threshold up to 200m")
	}
}

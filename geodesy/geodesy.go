package geodesy

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean earth radius used to scale angular
// distances to meters.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two
// coordinates given in degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// CumulativeDistance integrates point-to-point great-circle distances
// along a coordinate track, for display purposes when a recording carries
// position but no odometer channel. Missing coordinates (NaN) are filled
// from the nearest valid neighbor first, so acquisition gaps contribute
// zero distance. Returns nil when the inputs are unusable.
func CumulativeDistance(lats, lons []float64) []float64 {
	n := len(lats)
	if n == 0 || len(lons) != n {
		return nil
	}
	la := append([]float64(nil), lats...)
	lo := append([]float64(nil), lons...)
	fillNearest(la)
	fillNearest(lo)

	out := make([]float64, n)
	for i := 1; i < n; i++ {
		d := 0.0
		if !math.IsNaN(la[i-1]) && !math.IsNaN(la[i]) {
			d = Distance(la[i-1], lo[i-1], la[i], lo[i])
		}
		out[i] = out[i-1] + d
	}
	return out
}

func fillNearest(xs []float64) {
	next := math.NaN()
	for i := len(xs) - 1; i >= 0; i-- {
		if math.IsNaN(xs[i]) {
			xs[i] = next
		} else {
			next = xs[i]
		}
	}
	prev := math.NaN()
	for i := range xs {
		if math.IsNaN(xs[i]) {
			xs[i] = prev
		} else {
			prev = xs[i]
		}
	}
}

package geodesy

import (
	"math"
	"testing"
)

func TestDistanceOneDegreeAtEquator(t *testing.T) {
	want := 2 * math.Pi * EarthRadiusMeters / 360
	got := Distance(0, 0, 0, 1)
	if math.Abs(got-want) > 1 {
		t.Fatalf("expected ~%.1f m for one degree at the equator, got %.1f", want, got)
	}
}

func TestDistanceSamePoint(t *testing.T) {
	if got := Distance(40.01, -105.27, 40.01, -105.27); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestCumulativeDistanceMonotonic(t *testing.T) {
	lats := []float64{40.0, 40.001, 40.002, 40.003}
	lons := []float64{-105.3, -105.3, -105.3, -105.3}
	got := CumulativeDistance(lats, lons)
	if got[0] != 0 {
		t.Fatalf("expected cumulative distance to start at 0, got %v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("cumulative distance not increasing at %d: %v", i, got)
		}
	}
	// 0.003 degrees of latitude is roughly 333 m.
	if got[3] < 300 || got[3] > 370 {
		t.Fatalf("unexpected total distance %v", got[3])
	}
}

func TestCumulativeDistanceFillsCoordinateGaps(t *testing.T) {
	nan := math.NaN()
	lats := []float64{40.0, nan, 40.002}
	lons := []float64{-105.3, nan, -105.3}
	got := CumulativeDistance(lats, lons)
	for i, v := range got {
		if math.IsNaN(v) {
			t.Fatalf("expected finite distances, got NaN at %d", i)
		}
	}
	want := Distance(40.0, -105.3, 40.002, -105.3)
	if math.Abs(got[2]-want) > 0.1 {
		t.Fatalf("expected total %v, got %v", want, got[2])
	}
}

func TestCumulativeDistanceUnusableInputs(t *testing.T) {
	if got := CumulativeDistance(nil, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := CumulativeDistance([]float64{1, 2}, []float64{1}); got != nil {
		t.Fatalf("expected nil for mismatched lengths, got %v", got)
	}
}

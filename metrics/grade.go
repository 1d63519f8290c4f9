package metrics

import (
	"math"
	"sort"
)

const (
	// elevationBinMeters is the downsampling bin width for smoothing.
	elevationBinMeters = 30.0
	// elevationOutlierMeters rejects downsampled points that disagree
	// with the first smoothing pass by more than this.
	elevationOutlierMeters = 5.0

	DefaultSmoothingWindow = 3
	DefaultSmoothingOrder  = 2
)

// ElevationSmooth cleans GPS elevation noise before differentiation. It
// resamples elevation onto fixed-width distance bins by median, smooths the
// binned profile, drops bins that the smoothing pass flags as outliers,
// interpolates the gaps, smooths once more, and finally interpolates the
// binned profile back onto the original distances. Zero window or order
// select the defaults.
func ElevationSmooth(distances, elevations []float64, window, order int) []float64 {
	n := len(distances)
	if n == 0 || len(elevations) != n {
		return nil
	}
	if window <= 0 {
		window = DefaultSmoothingWindow
	}
	if order <= 0 {
		order = DefaultSmoothingOrder
	}

	first := distances[0]
	span := distances[n-1] - first
	nBins := int(math.Ceil(span / elevationBinMeters))
	if nBins < 1 {
		nBins = 1
	}
	width := span / float64(nBins)

	binVals := make([][]float64, nBins)
	for i := 0; i < n; i++ {
		b := 0
		if width > 0 {
			b = int((distances[i] - first) / width)
		}
		if b < 0 {
			b = 0
		}
		if b >= nBins {
			b = nBins - 1
		}
		if !math.IsNaN(elevations[i]) {
			binVals[b] = append(binVals[b], elevations[i])
		}
	}
	binElev := make([]float64, nBins)
	for b := range binVals {
		binElev[b] = median(binVals[b])
	}
	interpolateGaps(binElev)

	smoothed := savitzkyGolay(binElev, window, order)
	for b := range binElev {
		if math.Abs(binElev[b]-smoothed[b]) > elevationOutlierMeters {
			binElev[b] = math.NaN()
		}
	}
	interpolateGaps(binElev)
	smoothed = savitzkyGolay(binElev, window, order)

	mids := make([]float64, nBins)
	for b := range mids {
		mids[b] = first + (float64(b)+0.5)*width
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = interpExtrap(mids, smoothed, distances[i])
	}
	return out
}

// GradeRaw differentiates elevation over distance point to point. The
// first element has no predecessor and is NaN.
func GradeRaw(distances, elevations []float64) []float64 {
	n := len(distances)
	if n == 0 || len(elevations) != n {
		return nil
	}
	out := make([]float64, n)
	out[0] = math.NaN()
	for i := 1; i < n; i++ {
		out[i] = (elevations[i] - elevations[i-1]) / (distances[i] - distances[i-1])
	}
	return out
}

// GradeSmooth differentiates smoothed elevation over distance.
func GradeSmooth(distances, elevations []float64, window, order int) []float64 {
	sm := ElevationSmooth(distances, elevations, window, order)
	if sm == nil {
		return nil
	}
	return GradeRaw(distances, sm)
}

// median of vs, NaN when empty. vs is not modified.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// interpolateGaps fills NaN runs in place: interior gaps linearly between
// their valid neighbors, edge gaps with the nearest valid value.
func interpolateGaps(xs []float64) {
	n := len(xs)
	prev := -1
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) {
			continue
		}
		if prev == -1 {
			for j := 0; j < i; j++ {
				xs[j] = xs[i]
			}
		} else if i-prev > 1 {
			step := (xs[i] - xs[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				xs[j] = xs[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < n; j++ {
			xs[j] = xs[prev]
		}
	}
}

// interpExtrap linearly interpolates (xs, ys) at x, extending the first
// and last segments beyond the ends. xs must be ascending.
func interpExtrap(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return ys[0]
	}
	i := sort.SearchFloat64s(xs, x)
	if i <= 0 {
		i = 1
	}
	if i >= n {
		i = n - 1
	}
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

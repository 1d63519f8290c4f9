package metrics

import "math"

const (
	// gradeClamp bounds grade before the cost polynomial, which is only
	// calibrated for moderate slopes.
	gradeClamp = 0.45

	aeroK   = 0.01
	aeroEta = 0.5
)

// RunCost returns the energy cost of running, in J/kg/m, at a speed in m/s
// on a dimensionless grade: a degree-5 polynomial fit of treadmill cost
// against grade plus an aerodynamic term quadratic in speed. NaN grades
// propagate to a NaN cost.
func RunCost(speed, grade float64) float64 {
	g := grade
	if g > gradeClamp {
		g = gradeClamp
	}
	if g < -gradeClamp {
		g = -gradeClamp
	}
	g2 := g * g
	g3 := g2 * g
	g4 := g2 * g2
	g5 := g4 * g
	ci := 155.4*g5 - 30.4*g4 - 43.3*g3 + 46.3*g2 + 19.5*g + 3.6
	return ci + aeroK/aeroEta*speed*speed
}

// RunPower estimates running power in W/kg, pointwise over speed and grade
// columns. A nil grades slice means flat ground.
func RunPower(speeds, grades []float64) []float64 {
	out := make([]float64, len(speeds))
	for i, v := range speeds {
		g := 0.0
		if grades != nil {
			g = grades[i]
		}
		out[i] = RunCost(v, g) * v
	}
	return out
}

// MovingAverage returns the trailing mean over at most window samples.
// Output begins at the first sample rather than after a warm-up, and NaN
// entries are excluded from each window's mean.
func MovingAverage(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0.0
		count := 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			sum += xs[j]
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// LactateNorm is the 4th-power mean of xs, ignoring NaN entries. It weighs
// surges far more heavily than a plain average, mirroring how nonlinearly
// the body responds to spikes in intensity.
func LactateNorm(xs []float64) (float64, bool) {
	sum := 0.0
	count := 0
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		sum += v * v * v * v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return math.Sqrt(math.Sqrt(sum / float64(count))), true
}

// NormalizedPowerWindow is the moving-average width, in samples, behind
// normalized power.
const NormalizedPowerWindow = 30

// NormalizedPower computes the lactate norm of a 30-sample moving average
// of power. The second return is false when no usable samples exist.
func NormalizedPower(power []float64) (float64, bool) {
	if len(power) == 0 {
		return 0, false
	}
	return LactateNorm(MovingAverage(power, NormalizedPowerWindow))
}

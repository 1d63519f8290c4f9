package metrics

import "time"

// Intensity relates a normalized power or heart rate to a personal
// threshold. There is no sensible default threshold, so a missing or
// non-positive one yields unavailable rather than a guess.
func Intensity(normalized, threshold float64) (float64, bool) {
	if threshold <= 0 {
		return 0, false
	}
	return normalized / threshold, true
}

// TrainingStress scores workload from moving time and intensity: one hour
// at threshold intensity is 100 points, scaling with intensity squared.
func TrainingStress(intensity float64, moving time.Duration) float64 {
	return 100.0 * (moving.Seconds() / 3600.0) * intensity * intensity
}

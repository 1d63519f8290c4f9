package paceline

import (
	"math"
	"time"

	"paceline/series"
)

// BlockSummary describes one contiguous movement block of the canonical
// table.
type BlockSummary struct {
	Block        int
	Rows         int
	StartOffset  time.Duration
	EndOffset    time.Duration
	Duration     time.Duration
	Distance     float64
	AvgSpeed     float64
	AvgPower     float64
	AvgHeartRate float64
	AvgCadence   float64
}

// Blocks summarizes each movement block: row span, duration, odometer
// distance, and channel averages. Zero-valued effort readings are left out
// of the averages, matching how lap averages treat coasting.
func (a *Activity) Blocks() []BlockSummary {
	t := a.table
	n := t.Len()
	if n == 0 {
		return nil
	}

	speed := t.Column(series.FieldSpeed)
	power := t.Column(series.FieldPower)
	hr := t.Column(series.FieldHeartRate)
	cadence := t.Column(series.FieldCadence)
	distance := t.Column(series.FieldDistance)

	var out []BlockSummary
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && t.Blocks[i] == t.Blocks[start] {
			continue
		}
		end := i - 1
		b := BlockSummary{
			Block:       t.Blocks[start],
			Rows:        i - start,
			StartOffset: t.Offsets[start],
			EndOffset:   t.Offsets[end],
			Duration:    t.Timestamps[end].Sub(t.Timestamps[start]),
		}
		b.AvgSpeed = columnMean(speed, start, i, false)
		b.AvgPower = columnMean(power, start, i, true)
		b.AvgHeartRate = columnMean(hr, start, i, true)
		b.AvgCadence = columnMean(cadence, start, i, true)
		b.Distance = columnSpan(distance, start, i)
		out = append(out, b)
		start = i
	}
	return out
}

func columnMean(col []float64, start, end int, skipZeros bool) float64 {
	if col == nil {
		return 0
	}
	total := 0.0
	count := 0
	for i := start; i < end; i++ {
		v := col[i]
		if math.IsNaN(v) {
			continue
		}
		if skipZeros && v <= 0 {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func columnSpan(col []float64, start, end int) float64 {
	if col == nil {
		return 0
	}
	first, last := math.NaN(), math.NaN()
	for i := start; i < end; i++ {
		if math.IsNaN(col[i]) {
			continue
		}
		if math.IsNaN(first) {
			first = col[i]
		}
		last = col[i]
	}
	if math.IsNaN(first) || last < first {
		return 0
	}
	return last - first
}

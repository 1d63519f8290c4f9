package paceline

import (
	"time"
)

// LapSummary is one device lap labeled by its role in the session.
type LapSummary struct {
	Index        int
	StartOffset  time.Duration
	EndOffset    time.Duration
	Duration     time.Duration
	Distance     float64
	Effort       float64
	EffortUnit   string
	AvgHeartRate float64
	AvgCadence   float64
	Label        string
}

// IntervalStats aggregates the labeled work and recovery laps.
type IntervalStats struct {
	WorkCount           int
	RecoveryCount       int
	ActivationCount     int
	AvgWorkDuration     time.Duration
	AvgRecoveryDuration time.Duration
	AvgWorkEffort       float64
	AvgRecoveryEffort   float64
	EffortUnit          string
	WorkEffortChangePct float64
	WorkHeartRateChange float64
}

// Laps labels the device lap splits as warmup, work, recovery, easy,
// activation, cooldown, or steady, and aggregates interval execution.
// Effort is lap power in watts when the device recorded it, lap speed in
// m/s otherwise.
func (a *Activity) Laps() ([]LapSummary, IntervalStats) {
	if len(a.laps) == 0 {
		return nil, IntervalStats{}
	}

	effortUnit := "m/s"
	for _, lap := range a.laps {
		if lap.AvgPower != nil {
			effortUnit = "W"
			break
		}
	}

	summaries := make([]LapSummary, 0, len(a.laps))
	efforts := make([]float64, 0, len(a.laps))
	offset := time.Duration(0)
	for idx, lap := range a.laps {
		s := LapSummary{
			Index:       idx + 1,
			StartOffset: offset,
			EndOffset:   offset + lap.Timer,
			Duration:    lap.Timer,
			EffortUnit:  effortUnit,
			Label:       "steady",
		}
		if lap.Distance != nil {
			s.Distance = *lap.Distance
		}
		if lap.AvgHeartRate != nil {
			s.AvgHeartRate = *lap.AvgHeartRate
		}
		if lap.AvgCadence != nil {
			s.AvgCadence = *lap.AvgCadence
		}
		switch {
		case effortUnit == "W" && lap.AvgPower != nil:
			s.Effort = *lap.AvgPower
		case effortUnit == "m/s" && lap.AvgSpeed != nil:
			s.Effort = *lap.AvgSpeed
		case effortUnit == "m/s" && lap.Distance != nil && lap.Timer > 0:
			s.Effort = *lap.Distance / lap.Timer.Seconds()
		}
		if s.Effort > 0 {
			efforts = append(efforts, s.Effort)
		}
		summaries = append(summaries, s)
		offset += lap.Timer
	}

	baseline := 0.0
	if effortUnit == "W" {
		if m, ok := a.MeanPower(); ok {
			baseline = m
		}
	} else if m, ok := a.MeanSpeed(); ok {
		baseline = m
	}
	if baseline <= 0 {
		baseline = average(efforts)
	}
	if baseline <= 0 {
		return summaries, IntervalStats{EffortUnit: effortUnit}
	}
	hardThreshold := baseline * 1.20
	easyThreshold := baseline * 0.90

	var workIndices, recoveryIndices []int
	activationCount := 0
	for i := range summaries {
		lap := &summaries[i]
		if lap.Effort <= 0 || lap.Duration <= 0 {
			continue
		}
		if lap.Effort >= hardThreshold {
			if lap.Duration < 90*time.Second {
				lap.Label = "activation"
				activationCount++
			} else {
				lap.Label = "work"
				workIndices = append(workIndices, i)
			}
			continue
		}
		if lap.Duration >= time.Minute && lap.Effort <= easyThreshold {
			lap.Label = "easy"
		}
	}

	seenRecovery := make(map[int]struct{})
	for _, wi := range workIndices {
		next := wi + 1
		if next >= len(summaries) {
			continue
		}
		candidate := &summaries[next]
		if candidate.Duration >= time.Minute && candidate.Effort > 0 && candidate.Effort <= easyThreshold {
			candidate.Label = "recovery"
			if _, exists := seenRecovery[next]; !exists {
				seenRecovery[next] = struct{}{}
				recoveryIndices = append(recoveryIndices, next)
			}
		}
	}

	if len(workIndices) > 0 {
		firstWork := workIndices[0]
		lastWork := workIndices[len(workIndices)-1]
		for i := 0; i < firstWork; i++ {
			if summaries[i].Label == "easy" || i == 0 {
				summaries[i].Label = "warmup"
			}
		}
		for i := lastWork + 1; i < len(summaries); i++ {
			if summaries[i].Label == "recovery" {
				continue
			}
			if summaries[i].Label == "easy" || summaries[i].Effort <= easyThreshold {
				summaries[i].Label = "cooldown"
			}
		}
	}

	stats := IntervalStats{
		WorkCount:       len(workIndices),
		RecoveryCount:   len(recoveryIndices),
		ActivationCount: activationCount,
		EffortUnit:      effortUnit,
	}

	workEfforts := make([]float64, 0, len(workIndices))
	workDurations := make([]float64, 0, len(workIndices))
	workHR := make([]float64, 0, len(workIndices))
	for _, idx := range workIndices {
		workEfforts = append(workEfforts, summaries[idx].Effort)
		workDurations = append(workDurations, summaries[idx].Duration.Seconds())
		if summaries[idx].AvgHeartRate > 0 {
			workHR = append(workHR, summaries[idx].AvgHeartRate)
		}
	}
	recoveryEfforts := make([]float64, 0, len(recoveryIndices))
	recoveryDurations := make([]float64, 0, len(recoveryIndices))
	for _, idx := range recoveryIndices {
		recoveryEfforts = append(recoveryEfforts, summaries[idx].Effort)
		recoveryDurations = append(recoveryDurations, summaries[idx].Duration.Seconds())
	}

	stats.AvgWorkEffort = average(workEfforts)
	stats.AvgWorkDuration = secondsToDuration(average(workDurations))
	stats.AvgRecoveryEffort = average(recoveryEfforts)
	stats.AvgRecoveryDuration = secondsToDuration(average(recoveryDurations))
	stats.WorkEffortChangePct = pctChange(firstValue(workEfforts), lastValue(workEfforts))
	if len(workHR) >= 2 {
		stats.WorkHeartRateChange = lastValue(workHR) - firstValue(workHR)
	}

	return summaries, stats
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func pctChange(start, end float64) float64 {
	if start == 0 {
		return 0
	}
	return ((end / start) - 1.0) * 100.0
}

func firstValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

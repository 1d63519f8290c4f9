package paceline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ReportOptions supply athlete context for the report. Zero thresholds
// leave the corresponding load metrics unavailable.
type ReportOptions struct {
	ThresholdPower float64
	ThresholdHR    float64
	ShowLaps       bool
}

// BuildReport renders a plain-text session summary. Metrics whose inputs
// are missing print as unavailable; the report itself never fails.
func BuildReport(a *Activity, opts ReportOptions) string {
	var b strings.Builder

	sport := "recording"
	if s := a.Summary(); s != nil && s.Sport != "" {
		sport = s.Sport
		if s.SubSport != "" && s.SubSport != "generic" {
			sport = fmt.Sprintf("%s (%s)", s.Sport, s.SubSport)
		}
	}
	fmt.Fprintf(&b, "Session: %s\n", sport)
	if s := a.Summary(); s != nil && !s.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	}

	line := fmt.Sprintf("Moving %s of %s elapsed", formatDuration(a.MovingTime()), formatDuration(a.ElapsedTime()))
	if d, ok := a.TotalDistance(); ok {
		line += fmt.Sprintf(" | Distance %.1f km", d/1000.0)
	}
	fmt.Fprintf(&b, "%s | Blocks %d\n", line, a.Table().BlockCount())

	if mp, ok := a.MeanPower(); ok {
		if np, npOK := a.NormalizedPower(); npOK {
			fmt.Fprintf(&b, "Power %.0f avg / %.0f norm W\n", mp, np)
		} else {
			fmt.Fprintf(&b, "Power %.0f avg W\n", mp)
		}
	} else {
		b.WriteString("Power unavailable (no meter data; modeled run power needs speed, elevation, distance, and weight)\n")
	}

	var channels []string
	if hr, ok := a.MeanHeartRate(); ok {
		channels = append(channels, fmt.Sprintf("HR %.0f avg bpm", hr))
	}
	if c, ok := a.MeanCadence(); ok {
		channels = append(channels, fmt.Sprintf("Cadence %.0f avg rpm", c))
	}
	if v, ok := a.MeanSpeed(); ok {
		channels = append(channels, fmt.Sprintf("Speed %.1f avg km/h", mpsToKmh(v)))
	}
	if len(channels) > 0 {
		b.WriteString(strings.Join(channels, " | "))
		b.WriteByte('\n')
	}

	if opts.ThresholdPower > 0 {
		if intensity, ok := a.Intensity(opts.ThresholdPower); ok {
			stress, _ := a.TrainingStress(opts.ThresholdPower)
			fmt.Fprintf(&b, "Load IF %.2f | TSS %.0f (threshold %.0f W)\n", intensity, stress, opts.ThresholdPower)
		} else {
			b.WriteString("Load IF/TSS unavailable (no usable power series)\n")
		}
	} else {
		b.WriteString("Load IF/TSS unavailable (threshold power not provided)\n")
	}
	if opts.ThresholdHR > 0 {
		if intensity, ok := a.HeartRateIntensity(opts.ThresholdHR); ok {
			stress, _ := a.HeartRateTrainingStress(opts.ThresholdHR)
			fmt.Fprintf(&b, "HR load %.2f | stress %.0f (threshold %.0f bpm)\n", intensity, stress, opts.ThresholdHR)
		} else {
			b.WriteString("HR load unavailable (no heart rate data)\n")
		}
	}

	if blocks := a.Blocks(); len(blocks) > 1 {
		b.WriteString("\nMovement Blocks\n")
		for _, blk := range blocks {
			line := fmt.Sprintf("- block %d at +%s: %s", blk.Block, formatDuration(blk.StartOffset), formatDuration(blk.Duration))
			if blk.Distance > 0 {
				line += fmt.Sprintf(", %.1f km", blk.Distance/1000.0)
			}
			if blk.AvgHeartRate > 0 {
				line += fmt.Sprintf(", HR %.0f bpm", blk.AvgHeartRate)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	laps, intervals := a.Laps()
	b.WriteString("\nInterval Execution\n")
	if intervals.WorkCount > 0 {
		fmt.Fprintf(
			&b,
			"- Detected %d primary work intervals at %s for %s on average.\n",
			intervals.WorkCount,
			formatEffort(intervals.AvgWorkEffort, intervals.EffortUnit),
			formatDuration(intervals.AvgWorkDuration),
		)
		if intervals.RecoveryCount > 0 {
			fmt.Fprintf(
				&b,
				"- Recovery intervals: %d reps at %s for %s.\n",
				intervals.RecoveryCount,
				formatEffort(intervals.AvgRecoveryEffort, intervals.EffortUnit),
				formatDuration(intervals.AvgRecoveryDuration),
			)
		}
		if intervals.ActivationCount > 0 {
			fmt.Fprintf(&b, "- Pre-set activations: %d short high-effort reps.\n", intervals.ActivationCount)
		}
		fmt.Fprintf(
			&b,
			"- Work interval trend: effort %+.1f%%, HR %+.0f bpm (first to last interval).\n",
			intervals.WorkEffortChangePct,
			intervals.WorkHeartRateChange,
		)
	} else {
		b.WriteString("- No repeating hard interval structure was confidently detected from lap data.\n")
	}

	if opts.ShowLaps && len(laps) > 0 {
		b.WriteString("\nLaps\n")
		for _, lap := range laps {
			line := fmt.Sprintf("- lap %d [%s] %s", lap.Index, lap.Label, formatDuration(lap.Duration))
			if lap.Distance > 0 {
				line += fmt.Sprintf(", %.2f km", lap.Distance/1000.0)
			}
			if lap.Effort > 0 {
				line += ", " + formatEffort(lap.Effort, lap.EffortUnit)
			}
			if lap.AvgHeartRate > 0 {
				line += fmt.Sprintf(", HR %.0f bpm", lap.AvgHeartRate)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSpace(b.String())
}

func formatEffort(v float64, unit string) string {
	if unit == "W" {
		return fmt.Sprintf("%.0f W", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	s := int(math.Round(d.Seconds()))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func mpsToKmh(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * 3.6
}

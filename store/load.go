package store

import (
	"context"
	"sort"
	"time"
)

// EMA time constants, in days. CTL tracks fitness, ATL fatigue.
const (
	ctlDays = 42
	atlDays = 7
)

// DailyStress is one calendar day's accumulated training stress.
type DailyStress struct {
	Date   time.Time
	Stress float64
}

// LoadPoint is one day of the training-load series.
type LoadPoint struct {
	Date   time.Time
	Stress float64
	CTL    float64
	ATL    float64
	// TSB is form: fitness minus fatigue. Positive means fresh.
	TSB float64
}

// FitnessTrend folds daily stress into exponentially-weighted fitness and
// fatigue, one point per calendar day with rest days filled in at zero
// load. Input order does not matter; same-day entries accumulate.
func FitnessTrend(daily []DailyStress) []LoadPoint {
	if len(daily) == 0 {
		return nil
	}

	byDay := make(map[string]float64, len(daily))
	days := make([]time.Time, 0, len(daily))
	for _, d := range daily {
		day := truncateDay(d.Date)
		key := day.Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			days = append(days, day)
		}
		byDay[key] += d.Stress
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	ctlDecay := 2.0 / (ctlDays + 1.0)
	atlDecay := 2.0 / (atlDays + 1.0)

	var out []LoadPoint
	var ctl, atl float64
	for d := days[0]; !d.After(days[len(days)-1]); d = d.AddDate(0, 0, 1) {
		stress := byDay[d.Format("2006-01-02")]
		ctl += ctlDecay * (stress - ctl)
		atl += atlDecay * (stress - atl)
		out = append(out, LoadPoint{
			Date:   d,
			Stress: stress,
			CTL:    ctl,
			ATL:    atl,
			TSB:    ctl - atl,
		})
	}
	return out
}

// TrainingLoad computes the daily load series over the stored activities.
// The EMA always folds from the first stored day so early history keeps
// counting toward fitness; days > 0 trims the returned series to the most
// recent days points.
func (s *Store) TrainingLoad(ctx context.Context, days int) ([]LoadPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_time, COALESCE(stress, 0)
		FROM activities
		ORDER BY start_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var daily []DailyStress
	for rows.Next() {
		var start string
		var stress float64
		if err := rows.Scan(&start, &stress); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, err
		}
		daily = append(daily, DailyStress{Date: ts, Stress: stress})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trend := FitnessTrend(daily)
	if days > 0 && len(trend) > days {
		trend = trend[len(trend)-days:]
	}
	return trend, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package decode

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"paceline/series"
)

// fitUnits declares the raw units the FIT record channels arrive in.
// Speed is kept in raw mm/s and position in raw semicircles; the table
// builder normalizes both.
var fitUnits = map[series.Field]series.Unit{
	series.FieldSpeed: series.UnitMillimetersPerSecond,
	series.FieldLat:   series.UnitSemicircles,
	series.FieldLon:   series.UnitSemicircles,
}

func decodeFIT(data []byte, out *Recording) error {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return fmt.Errorf("activity fit expected: %w", err)
	}

	recs := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, r := range activity.Records {
		if r == nil || !validFitTime(r.Timestamp) {
			continue
		}
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})

	samples := make([]series.Sample, 0, len(recs))
	for _, r := range recs {
		s := series.Sample{Timestamp: r.Timestamp.UTC()}
		if r.EnhancedSpeed != math.MaxUint32 {
			s.Speed = series.Float(float64(r.EnhancedSpeed))
		} else if r.Speed != math.MaxUint16 {
			s.Speed = series.Float(float64(r.Speed))
		}
		if r.HeartRate != math.MaxUint8 {
			s.HeartRate = series.Float(float64(r.HeartRate))
		}
		if r.Power != math.MaxUint16 {
			s.Power = series.Float(float64(r.Power))
		}
		if r.Cadence != math.MaxUint8 {
			s.Cadence = series.Float(float64(r.Cadence))
		}
		if v := r.GetEnhancedAltitudeScaled(); isFinite(v) {
			s.Elevation = series.Float(v)
		} else if v := r.GetAltitudeScaled(); isFinite(v) {
			s.Elevation = series.Float(v)
		}
		if v := r.GetDistanceScaled(); isFinite(v) {
			s.Distance = series.Float(v)
		}
		lat := r.PositionLat.Semicircles()
		lon := r.PositionLong.Semicircles()
		if lat != math.MaxInt32 && lon != math.MaxInt32 && !(lat == 0 && lon == 0) {
			s.Lat = series.Float(float64(lat))
			s.Lon = series.Float(float64(lon))
		}
		if r.Temperature != math.MaxInt8 {
			s.Temperature = series.Float(float64(r.Temperature))
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return &series.Error{Kind: series.KindEmptyInput, Message: "fit file has no record messages"}
	}

	events := make([]series.Event, 0, len(activity.Events))
	for _, ev := range activity.Events {
		if ev == nil || ev.Event != fit.EventTimer || !validFitTime(ev.Timestamp) {
			continue
		}
		switch ev.EventType {
		case fit.EventTypeStart:
			events = append(events, series.Event{
				Timestamp: ev.Timestamp.UTC(),
				Kind:      series.EventStart,
				Trigger:   series.TriggerDevice,
			})
		case fit.EventTypeStop, fit.EventTypeStopAll, fit.EventTypeStopDisable, fit.EventTypeStopDisableAll:
			events = append(events, series.Event{
				Timestamp: ev.Timestamp.UTC(),
				Kind:      series.EventStop,
				Trigger:   series.TriggerDevice,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	out.Samples = series.Samples{Records: samples, Units: fitUnits}
	out.Events = events
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		out.Summary = fitSummary(activity.Sessions[0])
	}
	for _, lap := range activity.Laps {
		if lap == nil {
			continue
		}
		out.Laps = append(out.Laps, fitLap(lap))
	}
	return nil
}

func fitSummary(s *fit.SessionMsg) *Summary {
	sum := &Summary{
		Sport:    fmt.Sprint(s.Sport),
		SubSport: fmt.Sprint(s.SubSport),
	}
	if validFitTime(s.StartTime) {
		sum.StartTime = s.StartTime.UTC()
	}
	if v := s.GetTotalElapsedTimeScaled(); isFinite(v) && v > 0 {
		sum.TotalElapsed = time.Duration(v * float64(time.Second))
	}
	if v := s.GetTotalTimerTimeScaled(); isFinite(v) && v > 0 {
		sum.TotalTimer = time.Duration(v * float64(time.Second))
	}
	if v := s.GetTotalDistanceScaled(); isFinite(v) && v > 0 {
		sum.TotalDistance = series.Float(v)
	}
	if v := s.GetEnhancedAvgSpeedScaled(); isFinite(v) && v > 0 {
		sum.AvgSpeed = series.Float(v)
	} else if v := s.GetAvgSpeedScaled(); isFinite(v) && v > 0 {
		sum.AvgSpeed = series.Float(v)
	}
	if v := s.GetEnhancedMaxSpeedScaled(); isFinite(v) && v > 0 {
		sum.MaxSpeed = series.Float(v)
	} else if v := s.GetMaxSpeedScaled(); isFinite(v) && v > 0 {
		sum.MaxSpeed = series.Float(v)
	}
	if s.AvgHeartRate != math.MaxUint8 {
		sum.AvgHeartRate = series.Float(float64(s.AvgHeartRate))
	}
	if s.MaxHeartRate != math.MaxUint8 {
		sum.MaxHeartRate = series.Float(float64(s.MaxHeartRate))
	}
	if s.AvgCadence != math.MaxUint8 {
		sum.AvgCadence = series.Float(float64(s.AvgCadence))
	}
	if s.AvgPower != math.MaxUint16 {
		sum.AvgPower = series.Float(float64(s.AvgPower))
	}
	if s.MaxPower != math.MaxUint16 {
		sum.MaxPower = series.Float(float64(s.MaxPower))
	}
	if s.TotalAscent != math.MaxUint16 {
		sum.TotalAscent = series.Float(float64(s.TotalAscent))
	}
	if s.TotalDescent != math.MaxUint16 {
		sum.TotalDescent = series.Float(float64(s.TotalDescent))
	}
	if s.TotalCalories != math.MaxUint16 {
		sum.Calories = series.Float(float64(s.TotalCalories))
	}
	return sum
}

func fitLap(l *fit.LapMsg) Lap {
	lap := Lap{}
	if validFitTime(l.StartTime) {
		lap.StartTime = l.StartTime.UTC()
	}
	if v := l.GetTotalTimerTimeScaled(); isFinite(v) && v > 0 {
		lap.Timer = time.Duration(v * float64(time.Second))
	} else if v := l.GetTotalElapsedTimeScaled(); isFinite(v) && v > 0 {
		lap.Timer = time.Duration(v * float64(time.Second))
	}
	if v := l.GetTotalDistanceScaled(); isFinite(v) && v > 0 {
		lap.Distance = series.Float(v)
	}
	if v := l.GetAvgSpeedScaled(); isFinite(v) && v > 0 {
		lap.AvgSpeed = series.Float(v)
	}
	if v := l.GetMaxSpeedScaled(); isFinite(v) && v > 0 {
		lap.MaxSpeed = series.Float(v)
	}
	if l.AvgHeartRate != math.MaxUint8 {
		lap.AvgHeartRate = series.Float(float64(l.AvgHeartRate))
	}
	if l.MaxHeartRate != math.MaxUint8 {
		lap.MaxHeartRate = series.Float(float64(l.MaxHeartRate))
	}
	if l.AvgCadence != math.MaxUint8 {
		lap.AvgCadence = series.Float(float64(l.AvgCadence))
	}
	if l.AvgPower != math.MaxUint16 {
		lap.AvgPower = series.Float(float64(l.AvgPower))
	}
	if l.MaxPower != math.MaxUint16 {
		lap.MaxPower = series.Float(float64(l.MaxPower))
	}
	return lap
}

func validFitTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package paceline

import (
	"math"
	"time"

	"paceline/decode"
	"paceline/metrics"
	"paceline/series"
)

// Options control how an Activity builds its canonical table and models
// derived power.
type Options struct {
	// RemoveStoppedPeriods excises samples recorded while standing still.
	RemoveStoppedPeriods bool
	// StoppedThreshold is the stopped speed cutoff in m/s. Zero means
	// series.DefaultStoppedThreshold.
	StoppedThreshold float64
	// KeepExcised retains every sample and tags excised rows instead of
	// dropping them.
	KeepExcised bool
	// Elevation fills the elevation column for recordings that carry
	// position but no altimeter data.
	Elevation series.ElevationSource
	// SmoothingWindow and SmoothingOrder tune the elevation profile filter
	// behind grade and run power. Zero means the package defaults.
	SmoothingWindow int
	SmoothingOrder  int
	// WeightKG converts modeled run power (W/kg) to watts when no power
	// meter data is present.
	WeightKG float64
}

// Activity is the analysis view of one recording: the canonical table plus
// metric accessors. Metrics never error on missing channels; they report
// unavailable instead.
type Activity struct {
	table   *series.Table
	opts    Options
	events  []series.Event
	summary *decode.Summary
	laps    []decode.Lap
	elapsed time.Duration

	gradeComputed bool
	grade         []float64
	runComputed   bool
	runPower      []float64
	movingKnown   bool
	moving        time.Duration
	normKnown     bool
	norm          float64
	normOK        bool
}

// NewActivity builds the canonical table from decoded samples and device
// events. Elapsed time spans the raw recording, before any excision.
func NewActivity(samples series.Samples, events []series.Event, opts Options) (*Activity, error) {
	tab, err := series.BuildTable(samples, events, series.BuildOptions{
		RemoveStoppedPeriods: opts.RemoveStoppedPeriods,
		StoppedThreshold:     opts.StoppedThreshold,
		KeepExcised:          opts.KeepExcised,
		Elevation:            opts.Elevation,
	})
	if err != nil {
		return nil, err
	}
	a := &Activity{table: tab, opts: opts, events: events}
	if n := len(samples.Records); n > 0 {
		a.elapsed = samples.Records[n-1].Timestamp.Sub(samples.Records[0].Timestamp)
	}
	return a, nil
}

// FromRecording builds an Activity and keeps the decoder's session summary
// and laps alongside it.
func FromRecording(rec *decode.Recording, opts Options) (*Activity, error) {
	a, err := NewActivity(rec.Samples, rec.Events, opts)
	if err != nil {
		return nil, err
	}
	a.summary = rec.Summary
	a.laps = rec.Laps
	return a, nil
}

// Load decodes path and builds an Activity from it.
func Load(path string, opts Options) (*Activity, error) {
	rec, err := decode.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return FromRecording(rec, opts)
}

// Table exposes the canonical table.
func (a *Activity) Table() *series.Table { return a.table }

// Events returns the device event timeline the table was built against.
func (a *Activity) Events() []series.Event { return a.events }

// Summary returns the decoder's session summary, nil when the source had
// none.
func (a *Activity) Summary() *decode.Summary { return a.summary }

// DeviceLaps returns the decoder's lap splits.
func (a *Activity) DeviceLaps() []decode.Lap { return a.laps }

// filterRules describe how each channel is cleaned before aggregation.
// Effort channels only count while actually moving, and cadence zeros are
// coasting, not pedaling.
type filterRule struct {
	speedGated bool
	dropZeros  bool
}

var filterRules = map[series.Field]filterRule{
	series.FieldPower:     {speedGated: true},
	series.FieldRunPower:  {speedGated: true},
	series.FieldHeartRate: {speedGated: true},
	series.FieldCadence:   {speedGated: true, dropZeros: true},
}

func (a *Activity) filtered(f series.Field, col []float64) []float64 {
	if col == nil {
		return nil
	}
	rule := filterRules[f]
	gate := rule.speedGated && a.opts.RemoveStoppedPeriods
	var speeds []float64
	if gate {
		speeds = a.table.Column(series.FieldSpeed)
		gate = speeds != nil
	}
	threshold := a.opts.StoppedThreshold
	if threshold == 0 {
		threshold = series.DefaultStoppedThreshold
	}

	out := make([]float64, 0, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if rule.dropZeros && v == 0 {
			continue
		}
		if gate && speeds[i] <= threshold {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Speed returns the speed column in m/s with nulls removed.
func (a *Activity) Speed() []float64 {
	return a.filtered(series.FieldSpeed, a.table.Column(series.FieldSpeed))
}

// Power returns power meter readings in watts, null rows removed and, when
// stopped-period removal is on, stationary rows removed.
func (a *Activity) Power() []float64 {
	return a.filtered(series.FieldPower, a.table.Column(series.FieldPower))
}

// HeartRate returns heart rate readings in bpm, filtered like Power.
func (a *Activity) HeartRate() []float64 {
	return a.filtered(series.FieldHeartRate, a.table.Column(series.FieldHeartRate))
}

// Cadence returns cadence readings in rpm; zeros are dropped along with
// nulls since they mean coasting rather than effort.
func (a *Activity) Cadence() []float64 {
	return a.filtered(series.FieldCadence, a.table.Column(series.FieldCadence))
}

// Elevation returns the elevation column with nulls removed.
func (a *Activity) Elevation() []float64 {
	return a.filtered(series.FieldElevation, a.table.Column(series.FieldElevation))
}

// Distance returns the distance column with nulls removed.
func (a *Activity) Distance() []float64 {
	return a.filtered(series.FieldDistance, a.table.Column(series.FieldDistance))
}

// Grade returns the smoothed grade column, computed once from distance and
// elevation and attached to the table. Nil when either input is missing.
func (a *Activity) Grade() []float64 {
	if !a.gradeComputed {
		a.gradeComputed = true
		dist := a.table.Column(series.FieldDistance)
		elev := a.table.Column(series.FieldElevation)
		if dist != nil && elev != nil {
			a.grade = metrics.GradeSmooth(dist, elev, a.opts.SmoothingWindow, a.opts.SmoothingOrder)
			if a.grade != nil {
				_ = a.table.SetColumn(series.FieldGrade, a.grade, series.UnitRatio)
			}
		}
	}
	return a.grade
}

// RunPower returns modeled running power in W/kg, computed once and
// attached to the table. Modeling needs speed, elevation, and distance and
// only stands in when there is no power meter data.
func (a *Activity) RunPower() []float64 {
	if !a.runComputed {
		a.runComputed = true
		if !a.table.HasField(series.FieldPower) && a.table.HasField(series.FieldSpeed) {
			if grades := a.Grade(); grades != nil {
				a.runPower = metrics.RunPower(a.table.Column(series.FieldSpeed), grades)
				if a.runPower != nil {
					_ = a.table.SetColumn(series.FieldRunPower, a.runPower, series.UnitWattsPerKilogram)
				}
			}
		}
	}
	return a.runPower
}

// MovingTime sums time actually in motion, skipping gaps between blocks.
func (a *Activity) MovingTime() time.Duration {
	if !a.movingKnown {
		a.movingKnown = true
		a.moving = a.table.MovingTime()
	}
	return a.moving
}

// ElapsedTime spans the whole recording, first sample to last, excised
// periods included.
func (a *Activity) ElapsedTime() time.Duration { return a.elapsed }

// powerSeries picks the series behind the power metrics: the meter when
// present, modeled run power otherwise. watts reports whether values are
// already in watts (modeled power is W/kg).
func (a *Activity) powerSeries() (values []float64, watts bool) {
	if a.table.HasField(series.FieldPower) {
		return a.Power(), true
	}
	if rp := a.RunPower(); rp != nil {
		return a.filtered(series.FieldRunPower, rp), false
	}
	return nil, false
}

// MeanPower averages device power in watts. Without a power meter it falls
// back to modeled run power, which needs WeightKG to express watts.
func (a *Activity) MeanPower() (float64, bool) {
	values, watts := a.powerSeries()
	m := average(values)
	if m == 0 {
		return 0, false
	}
	if watts {
		return m, true
	}
	if a.opts.WeightKG > 0 {
		return m * a.opts.WeightKG, true
	}
	return 0, false
}

// NormalizedPower is the lactate-norm of 30-sample rolling mean power, in
// watts, with the same meter-or-modeled fallback as MeanPower.
func (a *Activity) NormalizedPower() (float64, bool) {
	if !a.normKnown {
		a.normKnown = true
		values, watts := a.powerSeries()
		np, ok := metrics.NormalizedPower(values)
		if ok && !watts {
			if a.opts.WeightKG > 0 {
				np *= a.opts.WeightKG
			} else {
				ok = false
			}
		}
		a.norm, a.normOK = np, ok
	}
	if !a.normOK {
		return 0, false
	}
	return a.norm, true
}

// Intensity is normalized power relative to the threshold power, both in
// watts.
func (a *Activity) Intensity(thresholdPower float64) (float64, bool) {
	np, ok := a.NormalizedPower()
	if !ok {
		return 0, false
	}
	return metrics.Intensity(np, thresholdPower)
}

// TrainingStress scores the session from intensity and moving time; one
// hour at threshold is 100.
func (a *Activity) TrainingStress(thresholdPower float64) (float64, bool) {
	i, ok := a.Intensity(thresholdPower)
	if !ok {
		return 0, false
	}
	return metrics.TrainingStress(i, a.MovingTime()), true
}

// MeanHeartRate averages filtered heart rate in bpm.
func (a *Activity) MeanHeartRate() (float64, bool) {
	m := average(a.HeartRate())
	return m, m > 0
}

// NormalizedHeartRate applies the normalized-power transform to heart
// rate, weighting sustained elevation of heart rate over brief spikes.
func (a *Activity) NormalizedHeartRate() (float64, bool) {
	return metrics.NormalizedPower(a.HeartRate())
}

// HeartRateIntensity is normalized heart rate relative to the athlete's
// threshold heart rate.
func (a *Activity) HeartRateIntensity(thresholdHR float64) (float64, bool) {
	nh, ok := a.NormalizedHeartRate()
	if !ok {
		return 0, false
	}
	return metrics.Intensity(nh, thresholdHR)
}

// HeartRateTrainingStress scores the session from heart rate intensity and
// moving time.
func (a *Activity) HeartRateTrainingStress(thresholdHR float64) (float64, bool) {
	i, ok := a.HeartRateIntensity(thresholdHR)
	if !ok {
		return 0, false
	}
	return metrics.TrainingStress(i, a.MovingTime()), true
}

// MeanCadence averages filtered cadence in rpm.
func (a *Activity) MeanCadence() (float64, bool) {
	m := average(a.Cadence())
	return m, m > 0
}

// MeanSpeed averages speed over retained rows, in m/s.
func (a *Activity) MeanSpeed() (float64, bool) {
	m := average(a.Speed())
	return m, m > 0
}

// TotalDistance is the odometer span over retained rows, in meters.
func (a *Activity) TotalDistance() (float64, bool) {
	col := a.table.Column(series.FieldDistance)
	if len(col) == 0 {
		return 0, false
	}
	first, last := math.NaN(), math.NaN()
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(first) {
			first = v
		}
		last = v
	}
	if math.IsNaN(first) || last <= first {
		return 0, false
	}
	return last - first, true
}

func average(values []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
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

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

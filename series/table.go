package series

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ElevationSource fills in elevations for coordinate pairs. Implementations
// may block on network I/O.
type ElevationSource interface {
	Lookup(ctx context.Context, lats, lons []float64) ([]float64, error)
}

// BuildOptions control table construction.
type BuildOptions struct {
	// RemoveStoppedPeriods runs stop detection on the speed channel and
	// drops samples recorded while the athlete was standing still.
	RemoveStoppedPeriods bool
	// StoppedThreshold is the stopped speed cutoff in m/s. Zero means
	// DefaultStoppedThreshold.
	StoppedThreshold float64
	// KeepExcised retains every sample, including those outside any block
	// and those inside detected stopped periods, and records the excised
	// flag per row. Stop detection still runs so the flags are populated.
	KeepExcised bool
	// Elevation, when set, fills the elevation column from coordinates
	// for recordings that carry position but no altimeter data.
	Elevation ElevationSource
}

// Table is the canonical per-sample table of an activity, keyed by
// (block, offset). Rows appear in timestamp order, blocks are contiguous
// and non-decreasing, and offsets count from the first retained sample.
// Column values use NaN for missing readings.
type Table struct {
	Blocks     []int
	Offsets    []time.Duration
	Timestamps []time.Time
	Columns    map[Field][]float64
	Units      map[Field]Unit
	// Excised is non-nil only when the table was built with KeepExcised.
	Excised []bool
}

// BuildTable normalizes raw samples, segments them against the activity's
// timer timeline, and assembles the canonical table. Units are normalized
// before anything else so the stopped threshold always compares against
// m/s. Device events must be ordered by timestamp.
func BuildTable(samples Samples, deviceEvents []Event, opts BuildOptions) (*Table, error) {
	norm, err := NormalizeSamples(samples)
	if err != nil {
		return nil, err
	}
	recs := norm.Records
	if len(recs) == 0 {
		return nil, newError(KindEmptyInput, "recording has no samples")
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i].Timestamp.After(recs[i-1].Timestamp) {
			return nil, newError(KindDataIntegrity,
				"sample %d timestamp %s does not advance past %s",
				i, recs[i].Timestamp.Format(time.RFC3339), recs[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	threshold := opts.StoppedThreshold
	if threshold == 0 {
		threshold = DefaultStoppedThreshold
	}
	timeline := deviceEvents
	if opts.RemoveStoppedPeriods || opts.KeepExcised {
		timeline = MergeTimelines(deviceEvents, DetectEvents(recs, threshold))
	}

	assigns, err := Segment(recs, timeline)
	if err != nil {
		return nil, err
	}

	retained := make([]int, 0, len(recs))
	for i, a := range assigns {
		if !opts.KeepExcised && (a.Block < 0 || a.Excised) {
			continue
		}
		retained = append(retained, i)
	}
	if len(retained) == 0 {
		return nil, newError(KindEmptyInput, "no samples retained after segmentation")
	}

	origin := recs[retained[0]].Timestamp
	n := len(retained)
	t := &Table{
		Blocks:     make([]int, n),
		Offsets:    make([]time.Duration, n),
		Timestamps: make([]time.Time, n),
		Columns:    make(map[Field][]float64),
		Units:      make(map[Field]Unit),
	}
	if opts.KeepExcised {
		t.Excised = make([]bool, n)
	}

	for _, f := range Fields {
		present := false
		for _, idx := range retained {
			if recs[idx].value(f) != nil {
				present = true
				break
			}
		}
		if !present {
			continue
		}
		t.Columns[f] = make([]float64, n)
		t.Units[f] = CanonicalUnit(f)
	}

	for row, idx := range retained {
		s := recs[idx]
		t.Blocks[row] = assigns[idx].Block
		t.Offsets[row] = s.Timestamp.Sub(origin)
		t.Timestamps[row] = s.Timestamp
		if opts.KeepExcised {
			t.Excised[row] = assigns[idx].Excised
		}
		for f, col := range t.Columns {
			if v := s.value(f); v != nil {
				col[row] = *v
			} else {
				col[row] = math.NaN()
			}
		}
	}

	t.fillSpeedNulls()
	t.inferCadencePower()
	if err := t.fillElevation(opts.Elevation); err != nil {
		return nil, err
	}
	t.fillDistance()
	if err := t.checkDerivations(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of retained rows.
func (t *Table) Len() int { return len(t.Timestamps) }

// HasField reports whether the table carries a column for f.
func (t *Table) HasField(f Field) bool {
	_, ok := t.Columns[f]
	return ok
}

// Column returns the column for f, or nil when absent. The slice is the
// table's own storage, not a copy.
func (t *Table) Column(f Field) []float64 {
	return t.Columns[f]
}

// SetColumn attaches a derived column such as grade or run power.
func (t *Table) SetColumn(f Field, values []float64, unit Unit) error {
	if len(values) != t.Len() {
		return fmt.Errorf("column %s: %d values for %d rows", f, len(values), t.Len())
	}
	t.Columns[f] = values
	t.Units[f] = unit
	return nil
}

// Unit returns the unit the column for f currently carries.
func (t *Table) Unit(f Field) Unit { return t.Units[f] }

// BlockCount returns the number of distinct blocks among retained rows.
func (t *Table) BlockCount() int {
	count := 0
	for i, b := range t.Blocks {
		if i == 0 || b != t.Blocks[i-1] {
			count++
		}
	}
	return count
}

// MovingTime sums timestamp gaps between consecutive rows of the same
// block. The first row of each block contributes nothing, so pauses
// between blocks are not counted.
func (t *Table) MovingTime() time.Duration {
	var total time.Duration
	for i := 1; i < len(t.Timestamps); i++ {
		if t.Blocks[i] != t.Blocks[i-1] {
			continue
		}
		total += t.Timestamps[i].Sub(t.Timestamps[i-1])
	}
	return total
}

// fillSpeedNulls treats missing speed readings as zero. Devices that pause
// recording while stationary simply omit the channel.
func (t *Table) fillSpeedNulls() {
	col, ok := t.Columns[FieldSpeed]
	if !ok {
		return
	}
	for i, v := range col {
		if math.IsNaN(v) {
			col[i] = 0
		}
	}
}

// inferCadencePower fills gaps in cadence and power from each other:
// a missing reading alongside a zero reading means the athlete was
// coasting, so both are zero.
func (t *Table) inferCadencePower() {
	cad, hasCad := t.Columns[FieldCadence]
	pow, hasPow := t.Columns[FieldPower]
	switch {
	case hasCad && hasPow:
		for i := range cad {
			cadMissing := math.IsNaN(cad[i])
			powMissing := math.IsNaN(pow[i])
			switch {
			case cadMissing && powMissing:
				cad[i], pow[i] = 0, 0
			case cadMissing && pow[i] == 0:
				cad[i] = 0
			case powMissing && cad[i] == 0:
				pow[i] = 0
			}
		}
	case hasCad:
		for i := range cad {
			if math.IsNaN(cad[i]) {
				cad[i] = 0
			}
		}
	}
}

// fillElevation backward-fills altimeter startup gaps. When the recording
// has no elevation channel at all but does carry coordinates, an injected
// source supplies the column instead.
func (t *Table) fillElevation(src ElevationSource) error {
	if col, ok := t.Columns[FieldElevation]; ok {
		backfill(col)
		return nil
	}
	if src == nil {
		return nil
	}
	lats, ok := t.Columns[FieldLat]
	if !ok {
		return nil
	}
	lons, ok := t.Columns[FieldLon]
	if !ok {
		return nil
	}

	qlats := append([]float64(nil), lats...)
	qlons := append([]float64(nil), lons...)
	backfill(qlats)
	backfill(qlons)
	forwardfill(qlats)
	forwardfill(qlons)

	elevs, err := src.Lookup(context.Background(), qlats, qlons)
	if err != nil {
		return fmt.Errorf("elevation lookup: %w", err)
	}
	if len(elevs) != t.Len() {
		return fmt.Errorf("elevation lookup: got %d values for %d rows", len(elevs), t.Len())
	}
	t.Columns[FieldElevation] = elevs
	t.Units[FieldElevation] = UnitMeters
	return nil
}

// fillDistance backward-fills odometer startup gaps.
func (t *Table) fillDistance() {
	if col, ok := t.Columns[FieldDistance]; ok {
		backfill(col)
	}
}

// checkDerivations refuses recordings that would need distance rebuilt
// from coordinates.
func (t *Table) checkDerivations() error {
	if t.HasField(FieldSpeed) && !t.HasField(FieldDistance) &&
		t.HasField(FieldLat) && t.HasField(FieldLon) {
		return newError(KindNotSupported,
			"recording has speed and position but no distance; distance reconstruction from position is not implemented")
	}
	return nil
}

func backfill(col []float64) {
	next := math.NaN()
	for i := len(col) - 1; i >= 0; i-- {
		if math.IsNaN(col[i]) {
			col[i] = next
		} else {
			next = col[i]
		}
	}
}

func forwardfill(col []float64) {
	prev := math.NaN()
	for i := range col {
		if math.IsNaN(col[i]) {
			col[i] = prev
		} else {
			prev = col[i]
		}
	}
}

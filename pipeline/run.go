package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"paceline"
	"paceline/decode"
	"paceline/series"
)

// Run decodes one recording, builds its canonical table and metrics, and
// writes the bundle artifacts into OutDir.
func Run(opts Options) (*Result, error) {
	name, data, err := loadSource(opts)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported table format %q (expected parquet|csv)", format)
	}

	sourceFormat := decode.Sniff(name, data)
	if sourceFormat == "" {
		return nil, fmt.Errorf("%s: unrecognized recording format", name)
	}
	rec, err := decode.Decode(data, sourceFormat)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	activity, err := paceline.FromRecording(rec, paceline.Options{
		RemoveStoppedPeriods: !opts.KeepStopped,
		StoppedThreshold:     opts.StoppedThreshold,
		KeepExcised:          opts.DebugExcise,
		Elevation:            opts.Elevation,
		WeightKG:             opts.WeightKG,
	})
	if err != nil {
		return nil, fmt.Errorf("build table: %w", err)
	}
	// Attach derived columns before flattening; both are no-ops when the
	// table lacks the inputs.
	activity.Grade()
	activity.RunPower()

	if err := prepareOutDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	table := activity.Table()
	tablePath := filepath.Join(opts.OutDir, tableBaseName+"."+format)
	if err := WriteTable(tablePath, table, format); err != nil {
		return nil, fmt.Errorf("write %s: %w", filepath.Base(tablePath), err)
	}

	summary := buildSummary(activity, opts)
	summaryPath := filepath.Join(opts.OutDir, summaryFileName)
	if err := writeJSON(summaryPath, summary); err != nil {
		return nil, fmt.Errorf("write %s: %w", summaryFileName, err)
	}

	sourceCopy := ""
	if opts.CopySource {
		sourceCopy = "source" + filepath.Ext(name)
		if filepath.Ext(name) == "" {
			sourceCopy = "source." + string(sourceFormat)
		}
		if err := os.WriteFile(filepath.Join(opts.OutDir, sourceCopy), data, 0o644); err != nil {
			return nil, fmt.Errorf("copy source: %w", err)
		}
	}

	manifest := Manifest{
		FormatVersion: FormatVersion,
		GeneratedAt:   time.Now().UTC(),
		Source: SourceInfo{
			Name:      name,
			Format:    string(rec.Format),
			SHA256:    rec.SHA256,
			SizeBytes: rec.Size,
		},
		Rows:   table.Len(),
		Blocks: table.BlockCount(),
		Files: BundleFiles{
			Table:   filepath.Base(tablePath),
			Summary: summaryFileName,
			Source:  sourceCopy,
		},
	}
	manifestPath := filepath.Join(opts.OutDir, manifestFileName)
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write %s: %w", manifestFileName, err)
	}

	logger(opts).Info("bundle written",
		"dir", opts.OutDir,
		"source", name,
		"rows", table.Len(),
		"blocks", table.BlockCount(),
		"format", format)

	res := &Result{
		OutDir:       opts.OutDir,
		TablePath:    tablePath,
		SummaryPath:  summaryPath,
		ManifestPath: manifestPath,
		Rows:         table.Len(),
		Blocks:       table.BlockCount(),
	}
	if sourceCopy != "" {
		res.SourceCopyPath = filepath.Join(opts.OutDir, sourceCopy)
	}
	return res, nil
}

func logger(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}

func loadSource(opts Options) (name string, data []byte, err error) {
	if opts.Data != nil {
		if strings.TrimSpace(opts.SourceName) == "" {
			return "", nil, fmt.Errorf("source name is required with in-memory data")
		}
		return opts.SourceName, opts.Data, nil
	}
	if strings.TrimSpace(opts.Path) == "" {
		return "", nil, fmt.Errorf("recording path is required")
	}
	data, err = os.ReadFile(opts.Path)
	if err != nil {
		return "", nil, fmt.Errorf("read recording: %w", err)
	}
	return filepath.Base(opts.Path), data, nil
}

// WriteTable writes the canonical table alone, outside a bundle, in the
// given format (parquet when empty).
func WriteTable(path string, t *series.Table, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	rows := flattenTable(t)
	switch format {
	case "csv":
		return writeTableCSV(path, rows, t.Excised != nil)
	case "parquet":
		return writeTableParquet(path, rows)
	}
	return fmt.Errorf("unsupported table format %q (expected parquet|csv)", format)
}

// prepareOutDir creates dir if needed and refuses to write into a non-empty
// directory unless overwrite is set.
func prepareOutDir(dir string, overwrite bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory %s is not empty (use overwrite)", dir)
	}
	return nil
}

func flattenTable(t *series.Table) []exportRow {
	column := func(f series.Field) []float64 { return t.Column(f) }
	at := func(col []float64, i int) float64 {
		if col == nil {
			return math.NaN()
		}
		return col[i]
	}

	speed := column(series.FieldSpeed)
	distance := column(series.FieldDistance)
	elevation := column(series.FieldElevation)
	lat := column(series.FieldLat)
	lon := column(series.FieldLon)
	hr := column(series.FieldHeartRate)
	cadence := column(series.FieldCadence)
	power := column(series.FieldPower)
	runPower := column(series.FieldRunPower)
	grade := column(series.FieldGrade)
	temperature := column(series.FieldTemperature)

	rows := make([]exportRow, t.Len())
	for i := range rows {
		rows[i] = exportRow{
			Block:        t.Blocks[i],
			OffsetS:      t.Offsets[i].Seconds(),
			Timestamp:    t.Timestamps[i].UTC(),
			SpeedMPS:     at(speed, i),
			DistanceM:    at(distance, i),
			ElevationM:   at(elevation, i),
			LatDeg:       at(lat, i),
			LonDeg:       at(lon, i),
			HRBPM:        at(hr, i),
			CadenceRPM:   at(cadence, i),
			PowerW:       at(power, i),
			RunPowerWKG:  at(runPower, i),
			Grade:        at(grade, i),
			TemperatureC: at(temperature, i),
		}
		if t.Excised != nil {
			rows[i].Excised = t.Excised[i]
		}
	}
	return rows
}

func buildSummary(a *paceline.Activity, opts Options) SummaryFile {
	t := a.Table()
	out := SummaryFile{
		ElapsedS: a.ElapsedTime().Seconds(),
		MovingS:  a.MovingTime().Seconds(),
		Rows:     t.Len(),
		Blocks:   t.BlockCount(),
	}
	if s := a.Summary(); s != nil {
		out.Sport = s.Sport
		out.SubSport = s.SubSport
		if !s.StartTime.IsZero() {
			start := s.StartTime.UTC()
			out.StartTime = &start
		}
	}
	if out.StartTime == nil && t.Len() > 0 {
		start := t.Timestamps[0].UTC()
		out.StartTime = &start
	}

	set := func(dst **float64, v float64, ok bool) {
		if ok {
			val := v
			*dst = &val
		}
	}
	d, ok := a.TotalDistance()
	set(&out.DistanceM, d, ok)
	v, ok := a.MeanSpeed()
	set(&out.MeanSpeedMPS, v, ok)
	v, ok = a.MeanPower()
	set(&out.MeanPowerW, v, ok)
	v, ok = a.NormalizedPower()
	set(&out.NPW, v, ok)
	v, ok = a.MeanHeartRate()
	set(&out.MeanHRBPM, v, ok)
	v, ok = a.MeanCadence()
	set(&out.MeanCadenceRPM, v, ok)

	if opts.ThresholdPower > 0 {
		i, ok := a.Intensity(opts.ThresholdPower)
		set(&out.IF, i, ok)
		s, ok := a.TrainingStress(opts.ThresholdPower)
		set(&out.TSS, s, ok)
		if out.IF == nil {
			out.Warnings = append(out.Warnings, "no usable power series: if and tss omitted")
		}
	} else if out.NPW != nil {
		out.Warnings = append(out.Warnings, "threshold power not provided: if and tss omitted")
	}
	if opts.ThresholdHR > 0 {
		i, ok := a.HeartRateIntensity(opts.ThresholdHR)
		set(&out.HRIF, i, ok)
		s, ok := a.HeartRateTrainingStress(opts.ThresholdHR)
		set(&out.HRStress, s, ok)
		if out.HRIF == nil {
			out.Warnings = append(out.Warnings, "no heart rate data: hr_if and hr_stress omitted")
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTableCSV(path string, rows []exportRow, withExcised bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"block", "offset_s", "timestamp",
		"speed_mps", "distance_m", "elevation_m", "lat_deg", "lon_deg",
		"heart_rate_bpm", "cadence_rpm", "power_w", "run_power_wkg",
		"grade", "temperature_c",
	}
	if withExcised {
		header = append(header, "excised")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Block),
			strconv.FormatFloat(r.OffsetS, 'f', 3, 64),
			r.Timestamp.Format(time.RFC3339),
			formatCell(r.SpeedMPS),
			formatCell(r.DistanceM),
			formatCell(r.ElevationM),
			formatCell(r.LatDeg),
			formatCell(r.LonDeg),
			formatCell(r.HRBPM),
			formatCell(r.CadenceRPM),
			formatCell(r.PowerW),
			formatCell(r.RunPowerWKG),
			formatCell(r.Grade),
			formatCell(r.TemperatureC),
		}
		if withExcised {
			row = append(row, strconv.FormatBool(r.Excised))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// formatCell renders a channel value for CSV, with an empty cell for a
// missing reading.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

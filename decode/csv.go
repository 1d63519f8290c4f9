package decode

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paceline/series"
)

// csvColumns maps recognized headers onto channels with their declared
// units. Headers that name a unit explicitly are always safe; bare headers
// are accepted only for channels with a single plausible unit.
var csvColumns = map[string]struct {
	field series.Field
	unit  series.Unit
}{
	"speed_mps":       {series.FieldSpeed, series.UnitMetersPerSecond},
	"speed_mmps":      {series.FieldSpeed, series.UnitMillimetersPerSecond},
	"heart_rate_bpm":  {series.FieldHeartRate, series.UnitBPM},
	"heart_rate":      {series.FieldHeartRate, series.UnitBPM},
	"power_w":         {series.FieldPower, series.UnitWatts},
	"power":           {series.FieldPower, series.UnitWatts},
	"cadence_rpm":     {series.FieldCadence, series.UnitRPM},
	"cadence":         {series.FieldCadence, series.UnitRPM},
	"elevation_m":     {series.FieldElevation, series.UnitMeters},
	"altitude_m":      {series.FieldElevation, series.UnitMeters},
	"distance_m":      {series.FieldDistance, series.UnitMeters},
	"lat_deg":         {series.FieldLat, series.UnitDegrees},
	"lon_deg":         {series.FieldLon, series.UnitDegrees},
	"lat_semicircles": {series.FieldLat, series.UnitSemicircles},
	"lon_semicircles": {series.FieldLon, series.UnitSemicircles},
	"temperature_c":   {series.FieldTemperature, series.UnitCelsius},
	"temperature":     {series.FieldTemperature, series.UnitCelsius},
}

// ambiguousBases are header stems that must carry a recognized unit
// suffix. A bare "speed" column could be m/s, mm/s, or km/h, and guessing
// wrong corrupts every downstream number.
var ambiguousBases = []string{"speed", "elevation", "altitude", "distance", "lat", "lon"}

// decodeCSV reads a timestamped sample table. CSV recordings carry no
// device events; segmentation relies entirely on threshold detection.
func decodeCSV(data []byte, out *Recording) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("decode csv: %w", err)
	}
	if len(rows) == 0 {
		return &series.Error{Kind: series.KindEmptyInput, Message: "csv file is empty"}
	}

	timeCol := -1
	fields := make(map[int]series.Field)
	units := make(map[series.Field]series.Unit)
	for i, raw := range rows[0] {
		header := strings.ToLower(strings.TrimSpace(raw))
		if header == "timestamp" || header == "time" {
			timeCol = i
			continue
		}
		if spec, ok := csvColumns[header]; ok {
			fields[i] = spec.field
			units[spec.field] = spec.unit
			continue
		}
		for _, base := range ambiguousBases {
			if header == base || strings.HasPrefix(header, base+"_") {
				return &series.Error{
					Kind:    series.KindUnitAmbiguity,
					Message: fmt.Sprintf("csv column %q does not name a recognized unit", raw),
				}
			}
		}
		// Unrelated columns pass through unread.
	}
	if timeCol < 0 {
		return fmt.Errorf("decode csv: no timestamp column")
	}

	samples := make([]series.Sample, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		if timeCol >= len(row) {
			return fmt.Errorf("decode csv: row %d has no timestamp", rowIdx+2)
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[timeCol]))
		if err != nil {
			return fmt.Errorf("decode csv: row %d: %w", rowIdx+2, err)
		}
		s := series.Sample{Timestamp: ts.UTC()}
		for col, field := range fields {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return fmt.Errorf("decode csv: row %d column %s: %w", rowIdx+2, field, err)
			}
			s.Set(field, v)
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return &series.Error{Kind: series.KindEmptyInput, Message: "csv file has no sample rows"}
	}

	out.Samples = series.Samples{Records: samples, Units: units}
	return nil
}

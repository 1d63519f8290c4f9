package decode

import (
	"testing"
	"time"

	"paceline/series"
)

func TestDecodeCSVTreadmillExport(t *testing.T) {
	body := "timestamp,speed_mps,heart_rate_bpm,power_w,note\n" +
		"2026-04-18T08:30:00Z,2.5,140,245,warmup\n" +
		"2026-04-18T08:30:01Z,2.6,,246,\n" +
		"2026-04-18T08:30:02Z,NaN,142,247,steady\n"

	rec, err := Decode([]byte(body), FormatCSV)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(rec.Samples.Records) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(rec.Samples.Records))
	}
	if rec.Samples.Units[series.FieldSpeed] != series.UnitMetersPerSecond {
		t.Fatalf("expected m/s unit from header, got %q", rec.Samples.Units[series.FieldSpeed])
	}

	s0 := rec.Samples.Records[0]
	if s0.Speed == nil || *s0.Speed != 2.5 {
		t.Fatalf("expected speed 2.5, got %v", s0.Speed)
	}
	if !s0.Timestamp.Equal(time.Date(2026, 4, 18, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %s", s0.Timestamp)
	}

	s1 := rec.Samples.Records[1]
	if s1.HeartRate != nil {
		t.Fatalf("empty cell should stay nil, got %v", *s1.HeartRate)
	}
	s2 := rec.Samples.Records[2]
	if s2.Speed != nil {
		t.Fatalf("NaN cell should stay nil, got %v", *s2.Speed)
	}
	if s2.HeartRate == nil || *s2.HeartRate != 142 {
		t.Fatalf("expected heart rate 142, got %v", s2.HeartRate)
	}

	if len(rec.Events) != 0 {
		t.Fatalf("csv recordings carry no device events, got %d", len(rec.Events))
	}
}

func TestDecodeCSVMillimeterSpeeds(t *testing.T) {
	body := "timestamp,speed_mmps\n" +
		"2026-04-18T08:30:00Z,2500\n" +
		"2026-04-18T08:30:01Z,2600\n"

	rec, err := Decode([]byte(body), FormatCSV)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	tab, err := series.BuildTable(rec.Samples, rec.Events, series.BuildOptions{RemoveStoppedPeriods: true})
	if err != nil {
		t.Fatalf("BuildTable() error: %v", err)
	}
	if got := tab.Column(series.FieldSpeed)[0]; got != 2.5 {
		t.Fatalf("expected normalized speed 2.5 m/s, got %v", got)
	}
}

func TestDecodeCSVAmbiguousHeader(t *testing.T) {
	for _, header := range []string{"speed", "speed_kph", "elevation_ft", "distance"} {
		body := "timestamp," + header + "\n2026-04-18T08:30:00Z,1\n"
		_, err := Decode([]byte(body), FormatCSV)
		if !series.IsUnitAmbiguity(err) {
			t.Fatalf("header %q: expected unit-ambiguity error, got %v", header, err)
		}
	}
}

func TestDecodeCSVNoTimestampColumn(t *testing.T) {
	body := "speed_mps,heart_rate_bpm\n2.5,140\n"
	if _, err := Decode([]byte(body), FormatCSV); err == nil {
		t.Fatal("expected error for missing timestamp column")
	}
}

func TestDecodeCSVMalformedCell(t *testing.T) {
	body := "timestamp,power_w\n2026-04-18T08:30:00Z,fast\n"
	_, err := Decode([]byte(body), FormatCSV)
	if err == nil {
		t.Fatal("expected parse error for non-numeric cell")
	}
}

func TestDecodeCSVHeaderOnly(t *testing.T) {
	body := "timestamp,power_w\n"
	_, err := Decode([]byte(body), FormatCSV)
	if !series.IsEmptyInput(err) {
		t.Fatalf("expected empty-input error, got %v", err)
	}
}

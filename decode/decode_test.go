package decode

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSniffByExtension(t *testing.T) {
	cases := []struct {
		name string
		want Format
	}{
		{"2026-04-18-08-30-00.fit", FormatFIT},
		{"morning_run.FIT", FormatFIT},
		{"export.tcx", FormatTCX},
		{"trail.gpx", FormatGPX},
		{"treadmill.csv", FormatCSV},
	}
	for _, tc := range cases {
		if got := Sniff(tc.name, nil); got != tc.want {
			t.Fatalf("Sniff(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSniffByContent(t *testing.T) {
	fitHeader := make([]byte, 14)
	copy(fitHeader[8:], ".FIT")

	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"download", fitHeader, FormatFIT},
		{"export", []byte(`<?xml version="1.0"?><TrainingCenterDatabase></TrainingCenterDatabase>`), FormatTCX},
		{"export", []byte(`<?xml version="1.0"?><gpx version="1.1"></gpx>`), FormatGPX},
		{"export", []byte("timestamp,speed_mps\n2026-04-18T08:30:00Z,2.5\n"), FormatCSV},
		{"export", []byte("just some text"), ""},
		{"export", nil, ""},
	}
	for _, tc := range cases {
		if got := Sniff(tc.name, tc.data); got != tc.want {
			t.Fatalf("Sniff(%q, %q) = %q, want %q", tc.name, tc.data, got, tc.want)
		}
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	if _, err := Decode([]byte("x"), Format("xlsx")); err == nil {
		t.Fatal("expected error for unrecognized format")
	}
}

func TestDecodeFileSniffsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treadmill.csv")
	body := "timestamp,speed_mps,heart_rate_bpm\n" +
		"2026-04-18T08:30:00Z,2.5,140\n" +
		"2026-04-18T08:30:01Z,2.6,141\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error: %v", err)
	}
	if rec.Format != FormatCSV {
		t.Fatalf("expected csv format, got %q", rec.Format)
	}
	if len(rec.Samples.Records) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(rec.Samples.Records))
	}
}

func TestDecodeFileUnrecognized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("nothing useful"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err == nil {
		t.Fatal("expected error for unrecognizable file")
	}
}

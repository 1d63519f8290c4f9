package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

var runStart = time.Date(2026, 4, 18, 8, 30, 0, 0, time.UTC)

// pausedRunFIT encodes a ten-sample activity with a mid-run standstill:
// five moving samples, three stopped, two moving again. Power and heart
// rate are steady throughout.
func pausedRunFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("fit.NewFile() error: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("file.Activity() error: %v", err)
	}

	ev := fit.NewEventMsg()
	ev.Timestamp = runStart
	ev.Event = fit.EventTimer
	ev.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, ev)

	speeds := []uint16{2500, 2500, 2500, 2500, 2500, 100, 100, 100, 2500, 2500}
	for i, mmps := range speeds {
		rec := fit.NewRecordMsg()
		rec.Timestamp = runStart.Add(time.Duration(i) * time.Second)
		rec.Speed = mmps
		rec.Power = 210
		rec.HeartRate = 150
		activity.Records = append(activity.Records, rec)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("fit.Encode() error: %v", err)
	}
	return buf.Bytes()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWritesCSVBundle(t *testing.T) {
	data := pausedRunFIT(t)
	outDir := filepath.Join(t.TempDir(), "bundle")

	res, err := Run(Options{
		Data:           data,
		SourceName:     "morning_run.fit",
		OutDir:         outDir,
		Format:         "csv",
		ThresholdPower: 250,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Rows != 7 {
		t.Fatalf("rows = %d, want 7 after stopped-period removal", res.Rows)
	}
	if res.Blocks != 2 {
		t.Fatalf("blocks = %d, want 2", res.Blocks)
	}

	f, err := os.Open(res.TablePath)
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read table csv: %v", err)
	}
	wantHeader := []string{
		"block", "offset_s", "timestamp",
		"speed_mps", "distance_m", "elevation_m", "lat_deg", "lon_deg",
		"heart_rate_bpm", "cadence_rpm", "power_w", "run_power_wkg",
		"grade", "temperature_c",
	}
	header := records[0]
	if len(header) != len(wantHeader) {
		t.Fatalf("header = %v", header)
	}
	for i, col := range wantHeader {
		if header[i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], col)
		}
	}
	if got := len(records) - 1; got != res.Rows {
		t.Fatalf("csv carries %d rows, result says %d", got, res.Rows)
	}
	if records[1][3] != "2.5" {
		t.Fatalf("first speed cell = %q, want normalized 2.5", records[1][3])
	}
	if records[1][4] != "" {
		t.Fatalf("distance cell should be empty, got %q", records[1][4])
	}

	var summary SummaryFile
	readJSON(t, res.SummaryPath, &summary)
	if summary.MovingS != 5 {
		t.Fatalf("moving_s = %v, want 5", summary.MovingS)
	}
	if summary.ElapsedS != 9 {
		t.Fatalf("elapsed_s = %v, want 9", summary.ElapsedS)
	}
	if summary.MeanPowerW == nil || *summary.MeanPowerW != 210 {
		t.Fatalf("mean_power_w = %v, want 210", summary.MeanPowerW)
	}
	if summary.IF == nil || *summary.IF != 0.84 {
		t.Fatalf("if = %v, want 0.84", summary.IF)
	}
	if summary.TSS == nil || *summary.TSS <= 0 {
		t.Fatalf("tss = %v, want > 0", summary.TSS)
	}
	if summary.DistanceM != nil {
		t.Fatalf("distance_m should be omitted, got %v", *summary.DistanceM)
	}

	var manifest Manifest
	readJSON(t, res.ManifestPath, &manifest)
	if manifest.FormatVersion != FormatVersion {
		t.Fatalf("format_version = %d", manifest.FormatVersion)
	}
	sum := sha256.Sum256(data)
	if manifest.Source.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("manifest sha256 = %s", manifest.Source.SHA256)
	}
	if manifest.Source.Format != "fit" || manifest.Source.Name != "morning_run.fit" {
		t.Fatalf("manifest source = %+v", manifest.Source)
	}
	if manifest.Files.Table != "table.csv" || manifest.Files.Summary != "summary.json" {
		t.Fatalf("manifest files = %+v", manifest.Files)
	}
	if manifest.Files.Source != "" {
		t.Fatalf("source copy recorded without CopySource: %q", manifest.Files.Source)
	}
}

func TestRunDefaultsToParquet(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "bundle")
	res, err := Run(Options{
		Data:       pausedRunFIT(t),
		SourceName: "morning_run.fit",
		OutDir:     outDir,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if filepath.Base(res.TablePath) != "table.parquet" {
		t.Fatalf("table path = %s", res.TablePath)
	}
	data, err := os.ReadFile(res.TablePath)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(data) < 8 || string(data[:4]) != "PAR1" {
		t.Fatalf("table.parquet missing parquet magic, got %d bytes", len(data))
	}
}

func TestRunKeepsExcisedRowsInDebug(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "bundle")
	res, err := Run(Options{
		Data:        pausedRunFIT(t),
		SourceName:  "morning_run.fit",
		OutDir:      outDir,
		Format:      "csv",
		DebugExcise: true,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Rows != 10 {
		t.Fatalf("rows = %d, want all 10 in debug", res.Rows)
	}

	f, err := os.Open(res.TablePath)
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read table csv: %v", err)
	}
	header := records[0]
	if header[len(header)-1] != "excised" {
		t.Fatalf("debug table missing excised column: %v", header)
	}
	excised := 0
	for _, row := range records[1:] {
		if row[len(row)-1] == "true" {
			excised++
		}
	}
	if excised != 3 {
		t.Fatalf("excised rows = %d, want 3", excised)
	}
}

func TestRunRefusesNonEmptyDir(t *testing.T) {
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "existing.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed out dir: %v", err)
	}

	opts := Options{
		Data:       pausedRunFIT(t),
		SourceName: "morning_run.fit",
		OutDir:     outDir,
		Format:     "csv",
		Logger:     quietLogger(),
	}
	if _, err := Run(opts); err == nil {
		t.Fatal("expected refusal for non-empty output directory")
	}
	opts.Overwrite = true
	if _, err := Run(opts); err != nil {
		t.Fatalf("Run() with overwrite error: %v", err)
	}
}

func TestRunCopiesSource(t *testing.T) {
	data := pausedRunFIT(t)
	outDir := filepath.Join(t.TempDir(), "bundle")
	res, err := Run(Options{
		Data:       data,
		SourceName: "morning_run.fit",
		OutDir:     outDir,
		Format:     "csv",
		CopySource: true,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.SourceCopyPath == "" {
		t.Fatal("source copy path not reported")
	}
	copied, err := os.ReadFile(res.SourceCopyPath)
	if err != nil {
		t.Fatalf("read source copy: %v", err)
	}
	if !bytes.Equal(copied, data) {
		t.Fatal("source copy differs from input")
	}
	if filepath.Base(res.SourceCopyPath) != "source.fit" {
		t.Fatalf("source copy name = %s", filepath.Base(res.SourceCopyPath))
	}
}

func TestRunOptionValidation(t *testing.T) {
	if _, err := Run(Options{OutDir: t.TempDir(), Logger: quietLogger()}); err == nil {
		t.Fatal("expected error without a recording")
	}
	if _, err := Run(Options{Data: []byte("x"), SourceName: "a.fit", Logger: quietLogger()}); err == nil {
		t.Fatal("expected error without an output directory")
	}
	if _, err := Run(Options{
		Data:       pausedRunFIT(t),
		SourceName: "morning_run.fit",
		OutDir:     filepath.Join(t.TempDir(), "out"),
		Format:     "xlsx",
		Logger:     quietLogger(),
	}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", filepath.Base(path), err)
	}
}

package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"
)

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"summary", "table", "export", "profile", "info", "import", "log"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	pf := newRootCommand().PersistentFlags()

	verbose := pf.Lookup("verbose")
	require.NotNil(t, verbose)
	require.Equal(t, "v", verbose.Shorthand)

	ftp := pf.Lookup("ftp")
	require.NotNil(t, ftp)
	require.Equal(t, "0", ftp.DefValue)

	keep := pf.Lookup("keep-stopped")
	require.NotNil(t, keep)
	require.Equal(t, "false", keep.DefValue)

	require.NotNil(t, pf.Lookup("config"))
	require.NotNil(t, pf.Lookup("stopped-threshold"))
	require.NotNil(t, pf.Lookup("debug-excise"))
}

// steadyRideFIT writes a short constant-effort recording to dir and returns
// its path.
func steadyRideFIT(t *testing.T, dir string) string {
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

	start := time.Date(2026, 5, 2, 7, 0, 0, 0, time.UTC)
	ev := fit.NewEventMsg()
	ev.Timestamp = start
	ev.Event = fit.EventTimer
	ev.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, ev)

	for i := 0; i < 5; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(i) * time.Second)
		rec.Speed = 2500
		rec.Power = 210
		rec.HeartRate = 150
		activity.Records = append(activity.Records, rec)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("fit.Encode() error: %v", err)
	}
	path := filepath.Join(dir, "ride.fit")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	path := steadyRideFIT(t, t.TempDir())

	out, err := runCLI(t, "summary", path, "--ftp", "250")
	require.NoError(t, err)
	require.Contains(t, out, "Session:")
	require.Contains(t, out, "Power 210 avg / 210 norm W")
	require.Contains(t, out, "Load IF 0.84")
	require.Contains(t, out, "Moving 4s of 4s elapsed")
}

func TestInfoCommand(t *testing.T) {
	path := steadyRideFIT(t, t.TempDir())

	out, err := runCLI(t, "info", path)
	require.NoError(t, err)
	require.Contains(t, out, "File:   ride.fit")
	require.Contains(t, out, "Format: fit")
	require.Contains(t, out, "SHA256:")
}

func TestImportAndLogCommands(t *testing.T) {
	dir := t.TempDir()
	path := steadyRideFIT(t, dir)
	db := filepath.Join(dir, "log.db")

	out, err := runCLI(t, "import", path, "--db", db, "--ftp", "250")
	require.NoError(t, err)
	require.Contains(t, out, "imported 1 of 1")

	// Same content hash again: skipped, not an error.
	out, err = runCLI(t, "import", path, "--db", db, "--ftp", "250")
	require.NoError(t, err)
	require.Contains(t, out, "imported 0 of 1")

	out, err = runCLI(t, "log", "--db", db, "--days", "0")
	require.NoError(t, err)
	require.Contains(t, out, "ride.fit")
	require.Contains(t, out, "All time: 1 activities")
	require.Contains(t, out, "Fitness Trend")
	require.Contains(t, out, "2026-05-02")
}

func TestProfileCommandMissingChannel(t *testing.T) {
	path := steadyRideFIT(t, t.TempDir())

	_, err := runCLI(t, "profile", path, "--metric", "elevation")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no elevation data")
}

func TestProfileCommandPower(t *testing.T) {
	path := steadyRideFIT(t, t.TempDir())

	out, err := runCLI(t, "profile", path, "--metric", "power")
	require.NoError(t, err)
	require.Contains(t, out, "power (W)")
}

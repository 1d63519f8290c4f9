package decode

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paceline/series"
)

// Format identifies a supported recording encoding.
type Format string

const (
	FormatFIT Format = "fit"
	FormatTCX Format = "tcx"
	FormatGPX Format = "gpx"
	FormatCSV Format = "csv"
)

// Summary carries whole-activity totals as reported by the source file.
// Pointer fields are nil when the source did not report them.
type Summary struct {
	Sport         string
	SubSport      string
	StartTime     time.Time
	TotalElapsed  time.Duration
	TotalTimer    time.Duration
	TotalDistance *float64
	AvgSpeed      *float64
	MaxSpeed      *float64
	AvgHeartRate  *float64
	MaxHeartRate  *float64
	AvgCadence    *float64
	AvgPower      *float64
	MaxPower      *float64
	TotalAscent   *float64
	TotalDescent  *float64
	Calories      *float64
}

// Lap is one device-recorded lap split.
type Lap struct {
	StartTime    time.Time
	Timer        time.Duration
	Distance     *float64
	AvgSpeed     *float64
	MaxSpeed     *float64
	AvgHeartRate *float64
	MaxHeartRate *float64
	AvgCadence   *float64
	AvgPower     *float64
	MaxPower     *float64
}

// Recording is the decoded, format-independent view of one activity file.
// Samples and Events are ordered by timestamp and carry whatever units the
// source declared; normalization happens at table construction.
type Recording struct {
	Format  Format
	SHA256  string
	Size    int64
	Samples series.Samples
	Events  []series.Event
	Summary *Summary
	Laps    []Lap
}

// Sniff guesses the encoding from the file name extension, falling back to
// content markers. An empty Format means the bytes are unrecognizable.
func Sniff(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fit":
		return FormatFIT
	case ".tcx":
		return FormatTCX
	case ".gpx":
		return FormatGPX
	case ".csv":
		return FormatCSV
	}
	if len(data) >= 12 && string(data[8:12]) == ".FIT" {
		return FormatFIT
	}
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	s := string(head)
	switch {
	case strings.Contains(s, "<TrainingCenterDatabase"):
		return FormatTCX
	case strings.Contains(s, "<gpx"):
		return FormatGPX
	case strings.Contains(strings.ToLower(firstLine(s)), "timestamp"):
		return FormatCSV
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Decode parses data as the given format into a Recording.
func Decode(data []byte, format Format) (*Recording, error) {
	sum := sha256.Sum256(data)
	rec := &Recording{
		Format: format,
		SHA256: hex.EncodeToString(sum[:]),
		Size:   int64(len(data)),
	}
	var err error
	switch format {
	case FormatFIT:
		err = decodeFIT(data, rec)
	case FormatTCX:
		err = decodeTCX(data, rec)
	case FormatGPX:
		err = decodeGPX(data, rec)
	case FormatCSV:
		err = decodeCSV(data, rec)
	default:
		return nil, fmt.Errorf("unrecognized recording format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeFile reads and decodes path, sniffing the format from the file
// name and contents.
func DecodeFile(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	format := Sniff(filepath.Base(path), data)
	if format == "" {
		return nil, fmt.Errorf("%s: unrecognized recording format", path)
	}
	return Decode(data, format)
}

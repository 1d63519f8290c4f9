package pipeline

import (
	"log/slog"
	"time"

	"paceline/series"
)

// FormatVersion identifies the bundle layout. Bump when artifact names or
// schemas change.
const FormatVersion = 1

// Artifact file names within a bundle directory.
const (
	summaryFileName  = "summary.json"
	manifestFileName = "manifest.json"
	tableBaseName    = "table"
)

// Options configures one export run.
type Options struct {
	// Path locates the recording on disk. Data and SourceName override it
	// when the recording is already in memory; SourceName then supplies the
	// file name used for format sniffing and the manifest.
	Path       string
	Data       []byte
	SourceName string

	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool

	// Athlete parameters. Thresholds unlock intensity and stress in
	// summary.json; weight lets modeled run power be expressed in watts.
	ThresholdPower float64
	ThresholdHR    float64
	WeightKG       float64

	// Segmentation controls. The zero value removes stopped periods at the
	// default threshold.
	KeepStopped      bool
	StoppedThreshold float64
	// DebugExcise keeps excised rows in the table, flagged in an extra
	// column, for inspecting what removal dropped.
	DebugExcise bool

	Elevation series.ElevationSource
	Logger    *slog.Logger
}

// Result lists the artifacts one run produced.
type Result struct {
	OutDir         string `json:"out_dir"`
	TablePath      string `json:"table_path"`
	SummaryPath    string `json:"summary_path"`
	ManifestPath   string `json:"manifest_path"`
	SourceCopyPath string `json:"source_copy_path,omitempty"`
	Rows           int    `json:"rows"`
	Blocks         int    `json:"blocks"`
}

// Manifest describes a bundle for later ingestion.
type Manifest struct {
	FormatVersion int         `json:"format_version"`
	GeneratedAt   time.Time   `json:"generated_at"`
	Source        SourceInfo  `json:"source"`
	Rows          int         `json:"rows"`
	Blocks        int         `json:"blocks"`
	Files         BundleFiles `json:"files"`
}

// SourceInfo fingerprints the recording a bundle was generated from.
type SourceInfo struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}

// BundleFiles holds bundle-relative artifact names.
type BundleFiles struct {
	Table   string `json:"table"`
	Summary string `json:"summary"`
	Source  string `json:"source,omitempty"`
}

// SummaryFile is the metrics artifact. Pointer fields are omitted when the
// recording lacks the channels, or the run the thresholds, to compute them.
type SummaryFile struct {
	Sport     string     `json:"sport,omitempty"`
	SubSport  string     `json:"sub_sport,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`

	ElapsedS float64 `json:"elapsed_s"`
	MovingS  float64 `json:"moving_s"`
	Rows     int     `json:"rows"`
	Blocks   int     `json:"blocks"`

	DistanceM      *float64 `json:"distance_m,omitempty"`
	MeanSpeedMPS   *float64 `json:"mean_speed_mps,omitempty"`
	MeanPowerW     *float64 `json:"mean_power_w,omitempty"`
	NPW            *float64 `json:"np_w,omitempty"`
	MeanHRBPM      *float64 `json:"mean_hr_bpm,omitempty"`
	MeanCadenceRPM *float64 `json:"mean_cadence_rpm,omitempty"`

	IF       *float64 `json:"if,omitempty"`
	TSS      *float64 `json:"tss,omitempty"`
	HRIF     *float64 `json:"hr_if,omitempty"`
	HRStress *float64 `json:"hr_stress,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// exportRow is one flattened table row shared by the CSV and parquet
// writers. NaN marks a missing reading.
type exportRow struct {
	Block        int
	OffsetS      float64
	Timestamp    time.Time
	SpeedMPS     float64
	DistanceM    float64
	ElevationM   float64
	LatDeg       float64
	LonDeg       float64
	HRBPM        float64
	CadenceRPM   float64
	PowerW       float64
	RunPowerWKG  float64
	Grade        float64
	TemperatureC float64
	Excised      bool
}

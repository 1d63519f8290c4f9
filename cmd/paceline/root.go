package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"paceline"
	"paceline/elevation"
	"paceline/series"
)

// rootOptions carries the global flags and the resolved config shared by
// every subcommand.
type rootOptions struct {
	ConfigPath       string
	FTP              float64
	ThresholdHR      float64
	Weight           float64
	KeepStopped      bool
	StoppedThreshold float64
	DebugExcise      bool
	Verbose          bool

	Config paceline.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "paceline",
		Short: "Analyze fitness device recordings",
		Long: `Paceline decodes FIT, TCX, GPX, and CSV activity recordings, removes
stopped periods, and derives grade, running power, and training-load
metrics from what remains.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return opts.resolveConfig(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default "+paceline.DefaultConfigFile+" when present)")
	pf.Float64Var(&opts.FTP, "ftp", 0, "threshold power in watts")
	pf.Float64Var(&opts.ThresholdHR, "threshold-hr", 0, "threshold heart rate in bpm")
	pf.Float64Var(&opts.Weight, "weight", 0, "athlete weight in kg")
	pf.BoolVar(&opts.KeepStopped, "keep-stopped", false, "keep samples recorded while standing still")
	pf.Float64Var(&opts.StoppedThreshold, "stopped-threshold", 0,
		fmt.Sprintf("stopped speed threshold in m/s (default %.1f)", series.DefaultStoppedThreshold))
	pf.BoolVar(&opts.DebugExcise, "debug-excise", false, "keep excised rows in tables, flagged in an extra column")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newSummaryCommand(opts),
		newTableCommand(opts),
		newExportCommand(opts),
		newProfileCommand(opts),
		newInfoCommand(opts),
		newImportCommand(opts),
		newLogCommand(opts),
	)
	return cmd
}

// resolveConfig loads the config file and backfills every global flag the
// user did not set explicitly.
func (o *rootOptions) resolveConfig(cmd *cobra.Command) error {
	path := o.ConfigPath
	if path == "" {
		if _, err := os.Stat(paceline.DefaultConfigFile); err == nil {
			path = paceline.DefaultConfigFile
		}
	}
	if path == "" {
		o.Config = paceline.DefaultConfig()
	} else {
		cfg, err := paceline.LoadConfig(path)
		if err != nil {
			return err
		}
		o.Config = cfg
		slog.Debug("config loaded", "path", path)
	}

	flags := cmd.Flags()
	if !flags.Changed("ftp") {
		o.FTP = o.Config.Athlete.FTPWatts
	}
	if !flags.Changed("threshold-hr") {
		o.ThresholdHR = o.Config.Athlete.ThresholdHR
	}
	if !flags.Changed("weight") {
		o.Weight = o.Config.Athlete.WeightKG
	}
	if !flags.Changed("keep-stopped") {
		o.KeepStopped = o.Config.Segmentation.KeepStopped
	}
	if !flags.Changed("stopped-threshold") {
		o.StoppedThreshold = o.Config.Segmentation.StoppedThresholdMPS
	}
	return nil
}

// activityOptions assembles the facade options every analyzing subcommand
// builds its Activity with.
func (o *rootOptions) activityOptions() paceline.Options {
	return paceline.Options{
		RemoveStoppedPeriods: !o.KeepStopped,
		StoppedThreshold:     o.StoppedThreshold,
		KeepExcised:          o.DebugExcise,
		Elevation:            o.elevationSource(),
		WeightKG:             o.Weight,
	}
}

func (o *rootOptions) elevationSource() series.ElevationSource {
	if o.Config.Elevation.Endpoint == "" {
		return nil
	}
	return &elevation.Client{
		Endpoint: o.Config.Elevation.Endpoint,
		APIKey:   o.Config.Elevation.APIKey,
		Logger:   slog.Default(),
	}
}

func (o *rootOptions) storePath(override string) string {
	if override != "" {
		return override
	}
	return o.Config.Store.Path
}

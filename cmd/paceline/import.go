package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"paceline"
	"paceline/decode"
	"paceline/store"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Add recordings to the activity log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.storePath(dbPath)
			s, err := store.Open(path)
			if err != nil {
				return err
			}
			defer s.Close()

			imported := 0
			for _, arg := range args {
				entry, err := buildEntry(arg, root)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				if _, err := s.Insert(cmd.Context(), entry); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						slog.Warn("already imported, skipping", "file", arg)
						continue
					}
					return fmt.Errorf("%s: %w", arg, err)
				}
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d recordings into %s\n", imported, len(args), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "activity log path (defaults to the configured store)")
	return cmd
}

// buildEntry decodes one recording and condenses it to a log entry. Stress
// comes from power when a threshold power is configured, from heart rate
// when only a threshold heart rate is, and stays unset otherwise.
func buildEntry(path string, root *rootOptions) (store.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Entry{}, fmt.Errorf("read recording: %w", err)
	}
	name := filepath.Base(path)
	format := decode.Sniff(name, data)
	if format == "" {
		return store.Entry{}, fmt.Errorf("unrecognized recording format")
	}
	rec, err := decode.Decode(data, format)
	if err != nil {
		return store.Entry{}, err
	}
	a, err := paceline.FromRecording(rec, root.activityOptions())
	if err != nil {
		return store.Entry{}, err
	}

	entry := store.Entry{
		Name:        name,
		Format:      string(rec.Format),
		SHA256:      rec.SHA256,
		SizeBytes:   rec.Size,
		MovingTime:  a.MovingTime(),
		ElapsedTime: a.ElapsedTime(),
	}
	if s := rec.Summary; s != nil {
		entry.Sport = s.Sport
		entry.StartTime = s.StartTime
	}
	if entry.StartTime.IsZero() && a.Table().Len() > 0 {
		entry.StartTime = a.Table().Timestamps[0]
	}
	if v, ok := a.TotalDistance(); ok {
		entry.DistanceM = &v
	}
	if v, ok := a.MeanPower(); ok {
		entry.MeanPowerW = &v
	}
	if v, ok := a.NormalizedPower(); ok {
		entry.NPW = &v
	}
	if v, ok := a.MeanHeartRate(); ok {
		entry.MeanHRBPM = &v
	}
	switch {
	case root.FTP > 0:
		if v, ok := a.TrainingStress(root.FTP); ok {
			entry.Stress = &v
		}
	case root.ThresholdHR > 0:
		if v, ok := a.HeartRateTrainingStress(root.ThresholdHR); ok {
			entry.Stress = &v
		}
	}
	return entry, nil
}

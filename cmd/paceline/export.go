package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"paceline/pipeline"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var (
		out        string
		format     string
		copySource bool
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the full analysis bundle for one recording",
		Long: `Export decodes a recording and writes a bundle directory holding the
canonical sample table, a metrics summary, and a manifest describing the
source file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Run(pipeline.Options{
				Path:             args[0],
				OutDir:           out,
				Format:           format,
				Overwrite:        overwrite,
				CopySource:       copySource,
				ThresholdPower:   root.FTP,
				ThresholdHR:      root.ThresholdHR,
				WeightKG:         root.Weight,
				KeepStopped:      root.KeepStopped,
				StoppedThreshold: root.StoppedThreshold,
				DebugExcise:      root.DebugExcise,
				Elevation:        root.elevationSource(),
				Logger:           slog.Default(),
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "bundle written to %s\n", res.OutDir)
			fmt.Fprintf(w, "  table:    %s\n", res.TablePath)
			fmt.Fprintf(w, "  summary:  %s\n", res.SummaryPath)
			fmt.Fprintf(w, "  manifest: %s\n", res.ManifestPath)
			if res.SourceCopyPath != "" {
				fmt.Fprintf(w, "  source:   %s\n", res.SourceCopyPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output directory (required)")
	cmd.Flags().StringVar(&format, "format", "parquet", "table format: parquet|csv")
	cmd.Flags().BoolVar(&copySource, "copy-source", false, "copy the source recording into the bundle")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow writing into a non-empty directory")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

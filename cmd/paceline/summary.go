package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paceline"
)

func newSummaryCommand(root *rootOptions) *cobra.Command {
	var showLaps bool

	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Print a session report for one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := paceline.Load(args[0], root.activityOptions())
			if err != nil {
				return err
			}
			report := paceline.BuildReport(a, paceline.ReportOptions{
				ThresholdPower: root.FTP,
				ThresholdHR:    root.ThresholdHR,
				ShowLaps:       showLaps,
			})
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLaps, "laps", false, "include the per-lap table")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"paceline/store"
)

func newLogCommand(root *rootOptions) *cobra.Command {
	var (
		dbPath string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the activity log and fitness trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(root.storePath(dbPath))
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			entries, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no activities imported yet")
				return nil
			}

			fmt.Fprintf(out, "%-10s  %-9s  %-24s  %9s  %8s  %6s\n",
				"Date", "Sport", "Name", "Moving", "Dist km", "Stress")
			for _, e := range entries {
				fmt.Fprintf(out, "%-10s  %-9s  %-24s  %9s  %8s  %6s\n",
					e.StartTime.Local().Format("2006-01-02"),
					orDash(e.Sport),
					clipped(e.Name, 24),
					formatDur(e.MovingTime),
					cellKM(e.DistanceM),
					cellF0(e.Stress))
			}

			sum, err := s.Summary(ctx, days)
			if err != nil {
				return err
			}
			window := "All time"
			if days > 0 {
				window = fmt.Sprintf("Last %d days", days)
			}
			fmt.Fprintf(out, "\n%s: %d activities, %.1f km, %s moving, %.0f stress\n",
				window, sum.Activities, sum.DistanceM/1000, formatDur(sum.MovingTime), sum.Stress)

			printTrend(ctx, out, s, days)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "activity log path (defaults to the configured store)")
	cmd.Flags().IntVar(&days, "days", 28, "trailing window in days, 0 for all time")
	return cmd
}

func printTrend(ctx context.Context, out io.Writer, s *store.Store, days int) {
	trend, err := s.TrainingLoad(ctx, days)
	if err != nil || len(trend) == 0 {
		return
	}
	fmt.Fprintf(out, "\nFitness Trend\n")
	fmt.Fprintf(out, "%-10s  %6s  %6s  %6s  %6s\n", "Date", "Stress", "CTL", "ATL", "TSB")
	for _, p := range trend {
		fmt.Fprintf(out, "%-10s  %6.0f  %6.1f  %6.1f  %6.1f\n",
			p.Date.Format("2006-01-02"), p.Stress, p.CTL, p.ATL, p.TSB)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func clipped(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatDur(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	sec := int(d.Round(time.Second).Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func cellKM(m *float64) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *m/1000)
}

func cellF0(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

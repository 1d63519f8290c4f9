package main

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"paceline"
	"paceline/geodesy"
	"paceline/metrics"
	"paceline/series"
)

func newProfileCommand(root *rootOptions) *cobra.Command {
	var (
		metric string
		smooth bool
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "profile <file>",
		Short: "Draw a terminal chart of one channel over the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := paceline.Load(args[0], root.activityOptions())
			if err != nil {
				return err
			}
			data, caption, err := profileSeries(a, metric, smooth)
			if err != nil {
				return err
			}
			data = compactSeries(data, width)
			if len(data) < 2 {
				return fmt.Errorf("not enough %s data to draw", metric)
			}
			chart := asciigraph.Plot(data,
				asciigraph.Height(height),
				asciigraph.Width(width),
				asciigraph.Precision(1),
				asciigraph.Caption(caption),
			)
			fmt.Fprintln(cmd.OutOrStdout(), chart)
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "elevation", "channel to plot: elevation|power|hr|speed")
	cmd.Flags().BoolVar(&smooth, "smooth", false, "plot the smoothed elevation profile")
	cmd.Flags().IntVar(&width, "width", 72, "chart width in columns")
	cmd.Flags().IntVar(&height, "height", 12, "chart height in rows")
	return cmd
}

func profileSeries(a *paceline.Activity, metric string, smooth bool) ([]float64, string, error) {
	t := a.Table()
	switch metric {
	case "elevation":
		col := t.Column(series.FieldElevation)
		if col == nil {
			return nil, "", fmt.Errorf("recording has no elevation data")
		}
		if !smooth {
			return col, "elevation (m)", nil
		}
		dist := profileDistances(a)
		if dist == nil {
			return nil, "", fmt.Errorf("smoothing needs distance or position data")
		}
		sm := metrics.ElevationSmooth(dist, col, 0, 0)
		if sm == nil {
			return nil, "", fmt.Errorf("not enough elevation data to smooth")
		}
		return sm, "elevation (m, smoothed)", nil
	case "power":
		if col := t.Column(series.FieldPower); col != nil {
			return col, "power (W)", nil
		}
		a.RunPower()
		if col := t.Column(series.FieldRunPower); col != nil {
			return col, "modeled power (W/kg)", nil
		}
		return nil, "", fmt.Errorf("recording has no power data and modeling needs speed, elevation, and distance")
	case "hr":
		col := t.Column(series.FieldHeartRate)
		if col == nil {
			return nil, "", fmt.Errorf("recording has no heart rate data")
		}
		return col, "heart rate (bpm)", nil
	case "speed":
		col := t.Column(series.FieldSpeed)
		if col == nil {
			return nil, "", fmt.Errorf("recording has no speed data")
		}
		return col, "speed (m/s)", nil
	}
	return nil, "", fmt.Errorf("unknown metric %q (expected elevation|power|hr|speed)", metric)
}

// profileDistances finds an x axis for the profile: the odometer column
// when the recording has one, a geodesic accumulation over the track
// otherwise.
func profileDistances(a *paceline.Activity) []float64 {
	t := a.Table()
	if col := t.Column(series.FieldDistance); col != nil {
		return col
	}
	lats := t.Column(series.FieldLat)
	lons := t.Column(series.FieldLon)
	if lats == nil || lons == nil {
		return nil
	}
	return geodesy.CumulativeDistance(lats, lons)
}

// compactSeries bucket-averages data down to width points, skipping
// missing readings, and carries the last seen value across empty buckets.
func compactSeries(data []float64, width int) []float64 {
	if width < 2 {
		width = 2
	}
	out := data
	if len(data) > width {
		out = make([]float64, width)
		ratio := float64(len(data)) / float64(width)
		for i := 0; i < width; i++ {
			start := int(float64(i) * ratio)
			end := int(float64(i+1) * ratio)
			if end > len(data) {
				end = len(data)
			}
			sum, count := 0.0, 0
			for j := start; j < end; j++ {
				if !math.IsNaN(data[j]) {
					sum += data[j]
					count++
				}
			}
			if count == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = sum / float64(count)
			}
		}
	} else {
		out = append([]float64(nil), data...)
	}

	compact := out[:0]
	last := math.NaN()
	for _, v := range out {
		if math.IsNaN(v) {
			if math.IsNaN(last) {
				continue
			}
			v = last
		}
		last = v
		compact = append(compact, v)
	}
	return compact
}

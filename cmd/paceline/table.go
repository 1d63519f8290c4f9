package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paceline"
	"paceline/pipeline"
)

func newTableCommand(root *rootOptions) *cobra.Command {
	var (
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "table <file>",
		Short: "Write the canonical sample table for one recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := paceline.Load(args[0], root.activityOptions())
			if err != nil {
				return err
			}
			// Derived columns ride along when the table can support them.
			a.Grade()
			a.RunPower()

			path := out
			if path == "" {
				path = tableName(args[0], format)
			}
			if err := pipeline.WriteTable(path, a.Table(), format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d blocks)\n",
				path, a.Table().Len(), a.Table().BlockCount())
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default <input>.csv or .parquet)")
	cmd.Flags().StringVar(&format, "format", "parquet", "table format: parquet|csv")
	return cmd
}

// tableName derives the default output name from the input, swapping the
// extension for the table format's.
func tableName(input, format string) string {
	ext := "parquet"
	if strings.EqualFold(strings.TrimSpace(format), "csv") {
		ext = "csv"
	}
	if i := strings.LastIndexByte(input, '.'); i > 0 {
		input = input[:i]
	}
	return input + "." + ext
}

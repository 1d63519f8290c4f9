package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"paceline/decode"
)

func newInfoCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Identify a recording without decoding it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read recording: %w", err)
			}
			info := decode.Identify(filepath.Base(args[0]), data)

			out := cmd.OutOrStdout()
			format := string(info.Format)
			if format == "" {
				format = "unknown"
			}
			fmt.Fprintf(out, "File:   %s\n", info.Name)
			fmt.Fprintf(out, "Format: %s\n", format)
			fmt.Fprintf(out, "Size:   %d bytes\n", info.Size)
			fmt.Fprintf(out, "SHA256: %s\n", info.SHA256)
			if dev := info.Device; dev != nil {
				fmt.Fprintf(out, "Device: %s %s", dev.Manufacturer, dev.Product)
				if dev.SerialNumber != 0 {
					fmt.Fprintf(out, " (serial %d)", dev.SerialNumber)
				}
				fmt.Fprintln(out)
				if !dev.TimeCreated.IsZero() {
					fmt.Fprintf(out, "Created: %s\n", dev.TimeCreated.Format("2006-01-02 15:04:05"))
				}
			}
			return nil
		},
	}
	return cmd
}

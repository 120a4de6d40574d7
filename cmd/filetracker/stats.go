package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mazelx/file-process-tracker/internal/database"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Display processing statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			records := database.NewRecordRepository(rt.db)
			stats, err := records.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				output := statsOutput{
					TotalFiles:  stats.TotalFiles,
					TotalSize:   stats.TotalSize,
					TotalSizeGB: sizeGB(stats.TotalSize),
					TotalErrors: stats.TotalErrors,
				}
				if stats.LastCopy != nil {
					last := stats.LastCopy.Format(time.RFC3339)
					output.LastCopy = &last
				}
				return outputJSON(cmd, output)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed files: %d\n", stats.TotalFiles)
			fmt.Fprintf(out, "Total size:      %.2f GB\n", sizeGB(stats.TotalSize))
			fmt.Fprintf(out, "Logged errors:   %d\n", stats.TotalErrors)
			if stats.LastCopy != nil {
				fmt.Fprintf(out, "Last copy:       %s\n", stats.LastCopy.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	return cmd
}

type statsOutput struct {
	TotalFiles  int64   `json:"total_files"`
	TotalSize   int64   `json:"total_size"`
	TotalSizeGB float64 `json:"total_size_gb"`
	TotalErrors int64   `json:"total_errors"`
	LastCopy    *string `json:"last_copy"`
}

func sizeGB(size int64) float64 {
	return float64(size) / (1 << 30)
}

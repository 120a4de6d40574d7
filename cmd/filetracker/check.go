package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mazelx/file-process-tracker/internal/database"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check record store integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			records := database.NewRecordRepository(rt.db)
			report, err := records.CheckIntegrity(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(cmd, checkOutput{
					Status:         report.Status,
					IntegrityCheck: report.IntegrityCheck,
					Duplicates:     duplicatesOutput(report),
					DuplicateCount: len(report.Duplicates),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:           %s\n", report.Status)
			fmt.Fprintf(out, "SQLite integrity: %s\n", report.IntegrityCheck)
			if len(report.Duplicates) > 0 {
				fmt.Fprintf(out, "Duplicates:       %d\n", len(report.Duplicates))
				for _, dup := range report.Duplicates {
					fmt.Fprintf(out, "  - %s (%d times)\n", dup.Filename, dup.Count)
				}
			}
			return nil
		},
	}

	return cmd
}

type duplicateOutput struct {
	Filename string `json:"filename"`
	Count    int64  `json:"count"`
}

type checkOutput struct {
	Status         string            `json:"status"`
	IntegrityCheck string            `json:"integrity_check"`
	Duplicates     []duplicateOutput `json:"duplicates"`
	DuplicateCount int               `json:"duplicate_count"`
}

func duplicatesOutput(report database.IntegrityReport) []duplicateOutput {
	result := make([]duplicateOutput, 0, len(report.Duplicates))
	for _, dup := range report.Duplicates {
		result = append(result, duplicateOutput{Filename: dup.Filename, Count: dup.Count})
	}
	return result
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mazelx/file-process-tracker/internal/processor"
)

func newCleanOrphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean-orphans",
		Short: "Delete files from target that are not in the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			proc, err := processor.New(rt.cfg, rt.db, rt.logger)
			if err != nil {
				return err
			}

			deleted, err := proc.CleanOrphans(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(cmd, cleanOutput{Deleted: deleted})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Orphan files deleted: %d\n", deleted)
			return nil
		},
	}

	return cmd
}

type cleanOutput struct {
	Deleted int `json:"deleted"`
}

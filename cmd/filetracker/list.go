package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mazelx/file-process-tracker/internal/database"
)

func newListCmd() *cobra.Command {
	var (
		limit  int64
		offset int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List already processed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			records := database.NewRecordRepository(rt.db)
			files, err := records.ListProcessed(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(cmd, listOutput(files))
			}

			outputListTable(cmd, files)
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 100, "maximum number of records to show")
	cmd.Flags().Int64Var(&offset, "offset", 0, "offset for pagination")

	return cmd
}

type listOutputEntry struct {
	Filename   string  `json:"filename"`
	SourcePath string  `json:"source_path"`
	TargetPath string  `json:"target_path"`
	Size       int64   `json:"size"`
	CopyDate   string  `json:"copy_date"`
	Hash       *string `json:"hash,omitempty"`
}

func listOutput(files []database.ProcessedFileRecord) []listOutputEntry {
	output := make([]listOutputEntry, 0, len(files))
	for _, f := range files {
		output = append(output, listOutputEntry{
			Filename:   f.Filename,
			SourcePath: f.SourcePath,
			TargetPath: f.TargetPath,
			Size:       f.Size,
			CopyDate:   f.CopyDate.Format(time.RFC3339),
			Hash:       f.Hash,
		})
	}
	return output
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	// Default width if terminal size cannot be determined
	return 80
}

func outputListTable(cmd *cobra.Command, files []database.ProcessedFileRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// Filename gets whatever the size, date, and hash columns leave over.
	termWidth := getTerminalWidth()
	nameWidth := termWidth - (12 + 19 + 18) - 4*3
	if nameWidth < 16 {
		nameWidth = 16
	}

	t.AppendHeader(table.Row{"Filename", "Size (MB)", "Copy Date", "Hash"})

	for _, f := range files {
		hash := ""
		if f.Hash != nil {
			hash = runewidth.Truncate(*f.Hash, 16, "...")
		}
		t.AppendRow(table.Row{
			runewidth.Truncate(f.Filename, nameWidth, "..."),
			fmt.Sprintf("%.2f", float64(f.Size)/(1<<20)),
			f.CopyDate.Format("2006-01-02 15:04:05"),
			hash,
		})
	}

	t.Render()
}

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// CleanOrphans removes files physically present in the target directory that
// have no corresponding record. The record store is the single source of
// truth for what belongs in the target, so anything unrecorded there is
// either a manual drop-in or a remnant of a rolled-back run.
//
// In simulation mode orphans are counted but left in place. Per-file delete
// failures are accumulated and logged once at the end; the sweep never
// aborts early. Returns the number of files deleted (or, when simulating,
// the number that would be). The returned error is reserved for listing and
// store failures, which do abort the pass.
func (p *Processor) CleanOrphans(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(p.targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list target directory: %w", err)
	}

	// Flat listing only: the copy engine writes targets by base filename,
	// never into subdirectories.
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return 0, nil
	}

	orphans, err := p.records.FilterUnprocessed(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("failed to partition target files: %w", err)
	}
	if len(orphans) == 0 {
		p.logger.Info().Msg("no orphan files in target")
		return 0, nil
	}

	deleted := 0
	var deleteErrs *multierror.Error
	for _, name := range orphans {
		path := filepath.Join(p.targetDir, name)

		if p.dryRun {
			p.logger.Info().Str("file", name).Msg("orphan file to delete (dry-run)")
			deleted++
			continue
		}

		if err := os.Remove(path); err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("failed to delete orphan file")
			deleteErrs = multierror.Append(deleteErrs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}

		p.logger.Info().Str("file", name).Msg("orphan file deleted")
		deleted++
	}

	if errs := deleteErrs.ErrorOrNil(); errs != nil {
		p.logger.Error().Err(errs).Int("failed", deleteErrs.Len()).Msg("orphan cleanup finished with failures")
	}

	return deleted, nil
}

// Package processor drives batched file copying against the record store.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mazelx/file-process-tracker/internal/config"
	"github.com/mazelx/file-process-tracker/internal/copier"
	"github.com/mazelx/file-process-tracker/internal/database"
	"github.com/mazelx/file-process-tracker/internal/hasher"
	"github.com/mazelx/file-process-tracker/internal/selector"
)

// Error types recorded in the error log.
const (
	ErrorTypeCopy     = "COPY_ERROR"
	ErrorTypeDatabase = "DB_ERROR"
)

// Processor selects, copies, and records batches of files. One Processor owns
// the record store handle for the life of the process; all calls are
// sequential, so no locking is needed.
type Processor struct {
	records *database.RecordRepository
	errLog  *database.ErrorRepository
	cp      *copier.Copier
	hs      *hasher.Hasher // nil when hashing is disabled
	logger  zerolog.Logger

	sourceDir       string
	targetDir       string
	batchSize       int
	excludePatterns []string
	recursive       bool
	dryRun          bool
}

// New validates the directory collaborators and builds a Processor. The
// target directory is created when missing, unless running in simulation
// mode.
func New(cfg *config.Config, dbCtx *database.Context, logger zerolog.Logger) (*Processor, error) {
	info, err := os.Stat(cfg.SourceDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", selector.ErrSourceDirNotFound, cfg.SourceDir)
	}

	if !cfg.Execution.DryRun {
		if err := os.MkdirAll(cfg.TargetDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create target directory: %w", err)
		}
	}

	var hs *hasher.Hasher
	if cfg.Hash.Compute {
		hs = hasher.New(cfg.Hash.Algorithm, logger)
	}

	p := &Processor{
		records:         database.NewRecordRepository(dbCtx),
		errLog:          database.NewErrorRepository(dbCtx),
		cp:              copier.New(cfg.Execution.DryRun),
		hs:              hs,
		logger:          logger,
		sourceDir:       cfg.SourceDir,
		targetDir:       cfg.TargetDir,
		batchSize:       cfg.Processing.BatchSize,
		excludePatterns: cfg.ExcludePatterns,
		recursive:       cfg.Processing.Recursive,
		dryRun:          cfg.Execution.DryRun,
	}

	logger.Info().
		Str("source", p.sourceDir).
		Str("target", p.targetDir).
		Int("batch_size", p.batchSize).
		Bool("dry_run", p.dryRun).
		Msg("processor initialized")

	return p, nil
}

// ProcessBatch runs one batch: enumerate the source, bulk-filter out files
// already recorded, take up to batchSize of the remainder, and run each
// file's copy/hash/record state machine. A single file's failure never
// aborts the batch; only read-path storage failures are propagated.
func (p *Processor) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	start := time.Now()
	result := newBatchResult()

	sourceFiles, err := selector.ListSourceFiles(p.sourceDir, p.recursive, p.excludePatterns)
	if err != nil {
		return nil, err
	}
	if len(sourceFiles) == 0 {
		p.logger.Info().Msg("no files to process in source directory")
		return result, nil
	}

	filenames := make([]string, len(sourceFiles))
	for i, f := range sourceFiles {
		filenames[i] = f.Name
	}

	unprocessed, err := p.records.FilterUnprocessed(ctx, filenames)
	if err != nil {
		return nil, fmt.Errorf("failed to filter unprocessed files: %w", err)
	}

	unprocessedSet := make(map[string]struct{}, len(unprocessed))
	for _, name := range unprocessed {
		unprocessedSet[name] = struct{}{}
	}

	var batch []selector.SourceFile
	for _, f := range sourceFiles {
		if _, ok := unprocessedSet[f.Name]; !ok {
			continue
		}
		batch = append(batch, f)
		if len(batch) >= p.batchSize {
			break
		}
	}

	if len(batch) == 0 {
		p.logger.Info().Msg("all files have already been processed")
		return result, nil
	}

	p.logger.Info().Int("count", len(batch)).Msg("starting batch")

	lastDecile := 0
	for i, file := range batch {
		p.processFile(ctx, file, result)

		if percent := (i + 1) * 100 / len(batch); percent/10 > lastDecile {
			lastDecile = percent / 10
			p.logger.Info().
				Int("percent", percent).
				Int("done", i+1).
				Int("total", len(batch)).
				Msg("progress")
		}
	}

	result.Duration = time.Since(start).Seconds()

	p.logger.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Int64("total_size", result.TotalSize).
		Float64("duration", result.Duration).
		Msg("batch complete")

	return result, nil
}

// processFile runs one file through the per-file state machine. Copy and
// record-insert failures are absorbed into the result; the target file never
// survives a failed insert.
func (p *Processor) processFile(ctx context.Context, file selector.SourceFile, result *BatchResult) {
	targetPath := filepath.Join(p.targetDir, file.Name)

	p.logger.Info().
		Str("file", file.Name).
		Int64("size", file.Size).
		Msg("processing")

	// The bulk filter ran earlier; re-check in case a record appeared since,
	// e.g. from another invocation against the same store.
	processed, err := p.records.IsProcessed(ctx, file.Name)
	if err != nil {
		p.logger.Error().Err(err).Str("file", file.Name).Msg("record lookup failed")
		result.recordError(file.Name, err.Error())
		return
	}
	if processed {
		p.logger.Debug().Str("file", file.Name).Msg("already recorded, skipping")
		result.Skipped++
		result.SkippedFiles = append(result.SkippedFiles, file.Name)
		return
	}

	if err := p.cp.CopyFile(file.Path, targetPath); err != nil {
		p.logger.Error().Err(err).Str("file", file.Name).Msg("copy failed")
		p.logError(ctx, file.Name, ErrorTypeCopy, err.Error())
		result.recordError(file.Name, err.Error())
		return
	}

	var fileHash *string
	if p.hs != nil && !p.dryRun {
		digest, err := p.hs.ComputeHash(targetPath)
		if err != nil {
			// Degraded, not fatal: the file is still recorded without a hash.
			p.logger.Warn().Err(err).Str("file", file.Name).Msg("hash computation failed")
		} else {
			fileHash = &digest
		}
	}

	if !p.dryRun {
		_, err := p.records.Add(ctx, database.ProcessedFileRecord{
			Filename:   file.Name,
			SourcePath: file.Path,
			TargetPath: targetPath,
			Size:       file.Size,
			CopyDate:   time.Now(),
			Hash:       fileHash,
		})
		if err != nil {
			p.logger.Error().Err(err).Str("file", file.Name).Msg("record insert failed")
			p.rollbackCopy(targetPath)
			p.logError(ctx, file.Name, ErrorTypeDatabase, err.Error())
			result.recordError(file.Name, err.Error())
			return
		}
	}

	result.Processed++
	result.TotalSize += file.Size
	result.ProcessedFiles = append(result.ProcessedFiles, file.Name)
}

// rollbackCopy removes a target file whose record insert failed, so no
// unrecorded copy is left behind. The next run will re-copy it.
func (p *Processor) rollbackCopy(targetPath string) {
	if _, err := os.Stat(targetPath); err != nil {
		return
	}
	if err := os.Remove(targetPath); err != nil {
		p.logger.Error().Err(err).Str("path", targetPath).Msg("failed to remove target after record insert failure")
		return
	}
	p.logger.Warn().Str("path", targetPath).Msg("target file removed after record insert failure")
}

// logError writes to the error log unless simulating. The error log is the
// error path itself, so its own failures are only logged to the sink.
func (p *Processor) logError(ctx context.Context, filename, errorType, message string) {
	if p.dryRun {
		return
	}
	if _, err := p.errLog.Log(ctx, filename, errorType, message); err != nil {
		p.logger.Error().Err(err).Str("file", filename).Msg("failed to write error log entry")
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/mazelx/file-process-tracker/internal/database/sqlc"
)

// filterChunkSize bounds the number of bound parameters per bulk IN query.
// SQLite caps host parameters at 999 by default.
const filterChunkSize = 500

// RecordRepository provides access to processed-file records.
type RecordRepository struct {
	ctx *Context
}

func NewRecordRepository(dbCtx *Context) *RecordRepository {
	return &RecordRepository{ctx: dbCtx}
}

// IsProcessed reports whether a record exists for the given filename.
func (r *RecordRepository) IsProcessed(ctx context.Context, filename string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("record repository: missing database context")
	}

	_, err := queries.FindProcessedFileByFilename(ctx, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Find returns the record for a filename, or nil when none exists.
func (r *RecordRepository) Find(ctx context.Context, filename string) (*ProcessedFileRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("record repository: missing database context")
	}

	row, err := queries.FindProcessedFileByFilename(ctx, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := mapProcessedFileRow(row)
	return &record, nil
}

// Add durably inserts a processed-file record and returns its id. Inserting a
// filename that already has a record fails with ErrDuplicate.
func (r *RecordRepository) Add(ctx context.Context, record ProcessedFileRecord) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("record repository: missing database context")
	}

	res, err := queries.InsertProcessedFile(ctx, sqldb.InsertProcessedFileParams{
		Filename:   record.Filename,
		SourcePath: record.SourcePath,
		TargetPath: record.TargetPath,
		Size:       record.Size,
		CopyDate:   record.CopyDate,
		Hash:       stringPtrToNullString(record.Hash),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicate, record.Filename)
		}
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FilterUnprocessed returns the subsequence of filenames with no existing
// record, preserving input order. The lookup runs as bulk IN queries rather
// than per-name existence checks.
func (r *RecordRepository) FilterUnprocessed(ctx context.Context, filenames []string) ([]string, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("record repository: missing database context")
	}

	if len(filenames) == 0 {
		return nil, nil
	}

	processed := make(map[string]struct{}, len(filenames))
	for start := 0; start < len(filenames); start += filterChunkSize {
		end := start + filterChunkSize
		if end > len(filenames) {
			end = len(filenames)
		}

		found, err := queries.ListProcessedFilenamesIn(ctx, filenames[start:end])
		if err != nil {
			return nil, err
		}
		for _, name := range found {
			processed[name] = struct{}{}
		}
	}

	unprocessed := make([]string, 0, len(filenames))
	for _, name := range filenames {
		if _, ok := processed[name]; !ok {
			unprocessed = append(unprocessed, name)
		}
	}
	return unprocessed, nil
}

// ListProcessed returns processed-file records, most recent copy first.
func (r *RecordRepository) ListProcessed(ctx context.Context, limit, offset int64) ([]ProcessedFileRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("record repository: missing database context")
	}

	rows, err := queries.ListProcessedFiles(ctx, sqldb.ListProcessedFilesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	result := make([]ProcessedFileRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapProcessedFileRow(row))
	}
	return result, nil
}

// Statistics aggregates record and error counts for the whole store.
func (r *RecordRepository) Statistics(ctx context.Context) (Statistics, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return Statistics{}, fmt.Errorf("record repository: missing database context")
	}

	var stats Statistics

	totalFiles, err := queries.CountProcessedFiles(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats.TotalFiles = totalFiles

	totalSize, err := queries.SumProcessedSize(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats.TotalSize = totalSize

	totalErrors, err := queries.CountErrors(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats.TotalErrors = totalErrors

	lastCopy, err := queries.LastCopyDate(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return Statistics{}, err
		}
	} else {
		stats.LastCopy = &lastCopy
	}

	return stats, nil
}

// CheckIntegrity scans for filename duplicates and runs SQLite's native
// consistency check.
func (r *RecordRepository) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return IntegrityReport{}, fmt.Errorf("record repository: missing database context")
	}

	rows, err := queries.ListDuplicateFilenames(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}

	duplicates := make([]DuplicateFilename, 0, len(rows))
	for _, row := range rows {
		duplicates = append(duplicates, DuplicateFilename{Filename: row.Filename, Count: row.Count})
	}

	verdict, err := queries.IntegrityCheck(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}

	report := IntegrityReport{
		IntegrityCheck: verdict,
		Duplicates:     duplicates,
	}
	if report.OK() {
		report.Status = "ok"
	} else {
		report.Status = "warning"
	}
	return report, nil
}

func mapProcessedFileRow(row sqldb.ProcessedFile) ProcessedFileRecord {
	return ProcessedFileRecord{
		ID:         row.ID,
		Filename:   row.Filename,
		SourcePath: row.SourcePath,
		TargetPath: row.TargetPath,
		Size:       row.Size,
		CopyDate:   row.CopyDate,
		Hash:       nullStringToPtr(row.Hash),
		CreatedAt:  optionalTime(row.CreatedAt),
	}
}

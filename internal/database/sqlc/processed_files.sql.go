package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ProcessedFile mirrors a row of the processed_files table.
type ProcessedFile struct {
	ID         int64
	Filename   string
	SourcePath string
	TargetPath string
	Size       int64
	CopyDate   time.Time
	Hash       sql.NullString
	CreatedAt  sql.NullTime
}

const insertProcessedFile = `
INSERT INTO processed_files (filename, source_path, target_path, size, copy_date, hash)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertProcessedFileParams struct {
	Filename   string
	SourcePath string
	TargetPath string
	Size       int64
	CopyDate   time.Time
	Hash       sql.NullString
}

func (q *Queries) InsertProcessedFile(ctx context.Context, arg InsertProcessedFileParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertProcessedFile,
		arg.Filename,
		arg.SourcePath,
		arg.TargetPath,
		arg.Size,
		arg.CopyDate,
		arg.Hash,
	)
}

const findProcessedFileByFilename = `
SELECT id, filename, source_path, target_path, size, copy_date, hash, created_at
FROM processed_files
WHERE filename = ?
`

func (q *Queries) FindProcessedFileByFilename(ctx context.Context, filename string) (ProcessedFile, error) {
	row := q.db.QueryRowContext(ctx, findProcessedFileByFilename, filename)
	var i ProcessedFile
	err := row.Scan(
		&i.ID,
		&i.Filename,
		&i.SourcePath,
		&i.TargetPath,
		&i.Size,
		&i.CopyDate,
		&i.Hash,
		&i.CreatedAt,
	)
	return i, err
}

const listProcessedFiles = `
SELECT id, filename, source_path, target_path, size, copy_date, hash, created_at
FROM processed_files
ORDER BY copy_date DESC
LIMIT ? OFFSET ?
`

type ListProcessedFilesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListProcessedFiles(ctx context.Context, arg ListProcessedFilesParams) ([]ProcessedFile, error) {
	rows, err := q.db.QueryContext(ctx, listProcessedFiles, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProcessedFile
	for rows.Next() {
		var i ProcessedFile
		if err := rows.Scan(
			&i.ID,
			&i.Filename,
			&i.SourcePath,
			&i.TargetPath,
			&i.Size,
			&i.CopyDate,
			&i.Hash,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listProcessedFilenamesIn = `
SELECT filename FROM processed_files
WHERE filename IN (/*SLICE:filenames*/?)
`

func (q *Queries) ListProcessedFilenamesIn(ctx context.Context, filenames []string) ([]string, error) {
	query := listProcessedFilenamesIn
	var queryParams []any
	if len(filenames) > 0 {
		for _, v := range filenames {
			queryParams = append(queryParams, v)
		}
		query = strings.Replace(query, "/*SLICE:filenames*/?", strings.Repeat(",?", len(filenames))[1:], 1)
	} else {
		query = strings.Replace(query, "/*SLICE:filenames*/?", "NULL", 1)
	}
	rows, err := q.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		items = append(items, filename)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countProcessedFiles = `SELECT COUNT(*) FROM processed_files`

func (q *Queries) CountProcessedFiles(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProcessedFiles)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const sumProcessedSize = `SELECT COALESCE(SUM(size), 0) FROM processed_files`

func (q *Queries) SumProcessedSize(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumProcessedSize)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const lastCopyDate = `
SELECT copy_date FROM processed_files
ORDER BY copy_date DESC
LIMIT 1
`

func (q *Queries) LastCopyDate(ctx context.Context) (time.Time, error) {
	row := q.db.QueryRowContext(ctx, lastCopyDate)
	var copyDate time.Time
	err := row.Scan(&copyDate)
	return copyDate, err
}

const listDuplicateFilenames = `
SELECT filename, COUNT(*) AS count
FROM processed_files
GROUP BY filename
HAVING count > 1
`

type ListDuplicateFilenamesRow struct {
	Filename string
	Count    int64
}

func (q *Queries) ListDuplicateFilenames(ctx context.Context) ([]ListDuplicateFilenamesRow, error) {
	rows, err := q.db.QueryContext(ctx, listDuplicateFilenames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListDuplicateFilenamesRow
	for rows.Next() {
		var i ListDuplicateFilenamesRow
		if err := rows.Scan(&i.Filename, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

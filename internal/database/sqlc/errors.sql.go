package sqldb

import (
	"context"
	"database/sql"
	"time"
)

// ErrorLog mirrors a row of the errors table.
type ErrorLog struct {
	ID           int64
	Timestamp    time.Time
	Filename     string
	ErrorType    string
	ErrorMessage string
	CreatedAt    sql.NullTime
}

const insertError = `
INSERT INTO errors (timestamp, filename, error_type, error_message)
VALUES (?, ?, ?, ?)
`

type InsertErrorParams struct {
	Timestamp    time.Time
	Filename     string
	ErrorType    string
	ErrorMessage string
}

func (q *Queries) InsertError(ctx context.Context, arg InsertErrorParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertError,
		arg.Timestamp,
		arg.Filename,
		arg.ErrorType,
		arg.ErrorMessage,
	)
}

const countErrors = `SELECT COUNT(*) FROM errors`

func (q *Queries) CountErrors(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countErrors)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listErrorsByFilename = `
SELECT id, timestamp, filename, error_type, error_message, created_at
FROM errors
WHERE filename = ?
ORDER BY timestamp DESC
`

func (q *Queries) ListErrorsByFilename(ctx context.Context, filename string) ([]ErrorLog, error) {
	rows, err := q.db.QueryContext(ctx, listErrorsByFilename, filename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ErrorLog
	for rows.Next() {
		var i ErrorLog
		if err := rows.Scan(
			&i.ID,
			&i.Timestamp,
			&i.Filename,
			&i.ErrorType,
			&i.ErrorMessage,
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

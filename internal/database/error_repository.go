package database

import (
	"context"
	"fmt"
	"time"

	sqldb "github.com/mazelx/file-process-tracker/internal/database/sqlc"
)

// ErrorRepository provides append-only access to the error log.
type ErrorRepository struct {
	ctx *Context
}

func NewErrorRepository(dbCtx *Context) *ErrorRepository {
	return &ErrorRepository{ctx: dbCtx}
}

// Log appends an error entry and returns its id.
func (r *ErrorRepository) Log(ctx context.Context, filename, errorType, message string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("error repository: missing database context")
	}

	res, err := queries.InsertError(ctx, sqldb.InsertErrorParams{
		Timestamp:    time.Now(),
		Filename:     filename,
		ErrorType:    errorType,
		ErrorMessage: message,
	})
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByFilename returns logged errors for a filename, newest first.
func (r *ErrorRepository) ListByFilename(ctx context.Context, filename string) ([]ErrorLogEntry, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("error repository: missing database context")
	}

	rows, err := queries.ListErrorsByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}

	result := make([]ErrorLogEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, ErrorLogEntry{
			ID:           row.ID,
			Timestamp:    row.Timestamp,
			Filename:     row.Filename,
			ErrorType:    row.ErrorType,
			ErrorMessage: row.ErrorMessage,
			CreatedAt:    optionalTime(row.CreatedAt),
		})
	}
	return result, nil
}

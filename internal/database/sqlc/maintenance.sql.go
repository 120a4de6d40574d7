package sqldb

import "context"

const integrityCheck = `PRAGMA integrity_check`

// IntegrityCheck runs SQLite's native consistency check and returns its verdict,
// the literal string "ok" when the file is sound.
func (q *Queries) IntegrityCheck(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, integrityCheck)
	var result string
	err := row.Scan(&result)
	return result, err
}

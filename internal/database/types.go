package database

import "time"

// ProcessedFileRecord represents a row in the processed_files table. One row
// exists per successfully copied file; the filename carries a uniqueness
// constraint, which is what makes re-running the tool idempotent.
type ProcessedFileRecord struct {
	ID         int64
	Filename   string
	SourcePath string
	TargetPath string
	Size       int64
	CopyDate   time.Time
	Hash       *string
	CreatedAt  time.Time
}

// ErrorLogEntry represents a row in the errors table. Entries are append-only
// and never mutated after insert.
type ErrorLogEntry struct {
	ID           int64
	Timestamp    time.Time
	Filename     string
	ErrorType    string
	ErrorMessage string
	CreatedAt    time.Time
}

// Statistics aggregates the contents of the record store.
type Statistics struct {
	TotalFiles  int64
	TotalSize   int64
	TotalErrors int64
	LastCopy    *time.Time
}

// DuplicateFilename reports a filename that appears more than once in
// processed_files. Structurally impossible under the uniqueness constraint,
// checked anyway to catch out-of-band tampering.
type DuplicateFilename struct {
	Filename string
	Count    int64
}

// IntegrityReport is the result of a record store consistency check.
type IntegrityReport struct {
	Status         string
	IntegrityCheck string
	Duplicates     []DuplicateFilename
}

// OK reports whether the store passed both the native SQLite check and the
// duplicate scan.
func (r IntegrityReport) OK() bool {
	return r.IntegrityCheck == "ok" && len(r.Duplicates) == 0
}

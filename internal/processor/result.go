package processor

// FileError itemises a single per-file failure inside a batch.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BatchResult aggregates the outcome of one ProcessBatch invocation.
type BatchResult struct {
	Processed      int         `json:"processed"`
	Skipped        int         `json:"skipped"`
	Errors         int         `json:"errors"`
	TotalSize      int64       `json:"total_size"`
	ProcessedFiles []string    `json:"files_processed"`
	SkippedFiles   []string    `json:"files_skipped"`
	ErrorFiles     []FileError `json:"files_errors"`
	Duration       float64     `json:"duration"`
}

func newBatchResult() *BatchResult {
	return &BatchResult{
		ProcessedFiles: []string{},
		SkippedFiles:   []string{},
		ErrorFiles:     []FileError{},
	}
}

func (r *BatchResult) recordError(filename, message string) {
	r.Errors++
	r.ErrorFiles = append(r.ErrorFiles, FileError{File: filename, Error: message})
}

package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mazelx/file-process-tracker/internal/config"
	"github.com/mazelx/file-process-tracker/internal/database"
)

type testEnv struct {
	cfg  *config.Config
	db   *database.Context
	proc *Processor
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SourceDir = t.TempDir()
	cfg.TargetDir = filepath.Join(t.TempDir(), "target")
	cfg.Database.Path = filepath.Join(t.TempDir(), "tracker.db")
	return cfg
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	dbCtx, err := database.CreateDatabase(cfg.Database.Path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.CloseDatabase(dbCtx)
	})

	proc, err := New(cfg, dbCtx, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}

	return &testEnv{cfg: cfg, db: dbCtx, proc: proc}
}

func addSourceFile(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(cfg.SourceDir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source file %s: %v", name, err)
	}
}

func TestProcessBatchCopiesAndRecords(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "alpha")
	addSourceFile(t, cfg, "b.jpg", "beta")

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.Processed != 2 || result.Errors != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.TotalSize != int64(len("alpha")+len("beta")) {
		t.Fatalf("unexpected total size: %d", result.TotalSize)
	}
	if len(result.ProcessedFiles) != 2 || result.ProcessedFiles[0] != "a.txt" || result.ProcessedFiles[1] != "b.jpg" {
		t.Fatalf("unexpected processed files: %v", result.ProcessedFiles)
	}

	for _, name := range []string{"a.txt", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(cfg.TargetDir, name)); err != nil {
			t.Fatalf("expected %s in target: %v", name, err)
		}
	}

	records := database.NewRecordRepository(env.db)
	for _, name := range []string{"a.txt", "b.jpg"} {
		processed, err := records.IsProcessed(ctx, name)
		if err != nil {
			t.Fatalf("IsProcessed failed: %v", err)
		}
		if !processed {
			t.Fatalf("expected record for %s", name)
		}
	}
}

func TestProcessBatchHonorsExcludePatterns(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ExcludePatterns = []string{"*.tmp"}
	env := newTestEnv(t, cfg)

	addSourceFile(t, cfg, "a.txt", "1")
	addSourceFile(t, cfg, "b.jpg", "2")
	addSourceFile(t, cfg, "c.tmp", "3")

	result, err := env.proc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Processed)
	}
	if _, err := os.Stat(filepath.Join(cfg.TargetDir, "c.tmp")); !os.IsNotExist(err) {
		t.Fatalf("excluded file must not be copied")
	}
}

func TestProcessBatchRespectsBatchSize(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Processing.BatchSize = 1
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "1")
	addSourceFile(t, cfg, "b.txt", "2")

	// Run one: a.txt only (lexicographic order drives batch boundaries).
	first, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("first ProcessBatch failed: %v", err)
	}
	if first.Processed != 1 || first.ProcessedFiles[0] != "a.txt" {
		t.Fatalf("unexpected first batch: %+v", first)
	}

	// Run two: b.txt.
	second, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("second ProcessBatch failed: %v", err)
	}
	if second.Processed != 1 || second.ProcessedFiles[0] != "b.txt" {
		t.Fatalf("unexpected second batch: %+v", second)
	}

	// Run three: nothing left.
	third, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("third ProcessBatch failed: %v", err)
	}
	if third.Processed != 0 || third.Errors != 0 {
		t.Fatalf("expected empty third batch, got %+v", third)
	}
}

func TestProcessBatchIsIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "alpha")

	if _, err := env.proc.ProcessBatch(ctx); err != nil {
		t.Fatalf("first ProcessBatch failed: %v", err)
	}

	// Change source content; a re-run must not overwrite the target.
	addSourceFile(t, cfg, "a.txt", "ALPHA CHANGED")

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("second ProcessBatch failed: %v", err)
	}
	if result.Processed != 0 || result.Errors != 0 {
		t.Fatalf("expected no work on second run, got %+v", result)
	}

	got, err := os.ReadFile(filepath.Join(cfg.TargetDir, "a.txt"))
	if err != nil {
		t.Fatalf("failed to read target: %v", err)
	}
	if string(got) != "alpha" {
		t.Fatalf("target was overwritten: %q", got)
	}
}

func TestProcessBatchExistingTargetIsError(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "new")
	if err := os.WriteFile(filepath.Join(cfg.TargetDir, "a.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to pre-create target: %v", err)
	}

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.Errors != 1 || result.Processed != 0 {
		t.Fatalf("expected 1 error, got %+v", result)
	}
	if len(result.ErrorFiles) != 1 || result.ErrorFiles[0].File != "a.txt" {
		t.Fatalf("unexpected error files: %v", result.ErrorFiles)
	}

	// Existing target wins; no record is created for the failed file.
	got, _ := os.ReadFile(filepath.Join(cfg.TargetDir, "a.txt"))
	if string(got) != "old" {
		t.Fatalf("existing target was modified: %q", got)
	}
	records := database.NewRecordRepository(env.db)
	processed, err := records.IsProcessed(ctx, "a.txt")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if processed {
		t.Fatalf("failed copy must not be recorded")
	}

	// The failure lands in the persistent error log.
	errLog := database.NewErrorRepository(env.db)
	entries, err := errLog.ListByFilename(ctx, "a.txt")
	if err != nil {
		t.Fatalf("ListByFilename failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ErrorType != ErrorTypeCopy {
		t.Fatalf("expected one COPY_ERROR entry, got %v", entries)
	}
}

func TestProcessBatchErrorDoesNotAbortBatch(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "1")
	addSourceFile(t, cfg, "b.txt", "2")
	addSourceFile(t, cfg, "c.txt", "3")
	// Pre-existing target makes b.txt fail; a.txt and c.txt must still copy.
	if err := os.WriteFile(filepath.Join(cfg.TargetDir, "b.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to pre-create target: %v", err)
	}

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if result.Processed != 2 || result.Errors != 1 {
		t.Fatalf("expected 2 processed and 1 error, got %+v", result)
	}
}

func TestProcessBatchInsertFailureRollsBackCopy(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "alpha")

	// Pin the pool to one connection and flip it read-only: record lookups
	// keep working, but the insert after the copy fails.
	env.db.DB.SetMaxOpenConns(1)
	if _, err := env.db.DB.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		t.Fatalf("failed to set query_only: %v", err)
	}

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if result.Processed != 0 || result.Errors != 1 {
		t.Fatalf("expected 1 error and no processed files, got %+v", result)
	}

	// The copied file must not survive a failed record insert.
	if _, err := os.Stat(filepath.Join(cfg.TargetDir, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("target must be rolled back after a failed record insert")
	}

	// Once the store is writable again, the next run re-copies the file.
	if _, err := env.db.DB.ExecContext(ctx, "PRAGMA query_only = OFF"); err != nil {
		t.Fatalf("failed to clear query_only: %v", err)
	}
	again, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("second ProcessBatch failed: %v", err)
	}
	if again.Processed != 1 {
		t.Fatalf("expected re-copy after store recovery, got %+v", again)
	}
	if _, err := os.Stat(filepath.Join(cfg.TargetDir, "a.txt")); err != nil {
		t.Fatalf("expected target after recovery: %v", err)
	}
}

func TestProcessBatchComputesHash(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Hash.Compute = true
	cfg.Hash.Algorithm = config.HashAlgorithmSHA256
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "hello.txt", "hello")

	if _, err := env.proc.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	records := database.NewRecordRepository(env.db)
	record, err := records.Find(ctx, "hello.txt")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record == nil {
		t.Fatalf("expected a record for hello.txt")
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if record.Hash == nil || *record.Hash != want {
		t.Fatalf("expected sha256 hash %s, got %v", want, record.Hash)
	}
}

func TestProcessBatchWithoutHashLeavesHashEmpty(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "1")

	if _, err := env.proc.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	records := database.NewRecordRepository(env.db)
	record, err := records.Find(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record == nil || record.Hash != nil {
		t.Fatalf("expected record without hash, got %+v", record)
	}
}

func TestProcessBatchDryRun(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Execution.DryRun = true
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "alpha")

	result, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	// Dry run reports what would happen without writing anything.
	if result.Processed != 1 {
		t.Fatalf("expected 1 would-be processed file, got %+v", result)
	}
	if _, err := os.Stat(cfg.TargetDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the target directory")
	}

	records := database.NewRecordRepository(env.db)
	processed, err := records.IsProcessed(ctx, "a.txt")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if processed {
		t.Fatalf("dry run must not insert records")
	}

	// Repeated dry runs keep reporting the same pending work.
	again, err := env.proc.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("second dry-run ProcessBatch failed: %v", err)
	}
	if again.Processed != 1 {
		t.Fatalf("expected dry run to be repeatable, got %+v", again)
	}
}

func TestProcessBatchEmptySource(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)

	result, err := env.proc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if result.Processed != 0 || result.Skipped != 0 || result.Errors != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if result.ProcessedFiles == nil || result.SkippedFiles == nil || result.ErrorFiles == nil {
		t.Fatalf("result slices must be non-nil for JSON output")
	}
}

func TestNewMissingSourceDir(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SourceDir = filepath.Join(t.TempDir(), "absent")

	dbCtx, err := database.CreateDatabase(cfg.Database.Path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer database.CloseDatabase(dbCtx)

	if _, err := New(cfg, dbCtx, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing source directory")
	}
}

func TestProcessBatchSharedStoreAcrossProcessors(t *testing.T) {
	cfg := newTestConfig(t)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	addSourceFile(t, cfg, "a.txt", "1")

	if _, err := env.proc.ProcessBatch(ctx); err != nil {
		t.Fatalf("first ProcessBatch failed: %v", err)
	}

	// A second processor over the same store sees the existing records.
	other, err := New(cfg, env.db, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create second processor: %v", err)
	}
	result, err := other.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("second ProcessBatch failed: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("expected no reprocessing, got %+v", result)
	}
}

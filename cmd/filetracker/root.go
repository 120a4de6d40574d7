package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mazelx/file-process-tracker/internal/config"
	"github.com/mazelx/file-process-tracker/internal/database"
	"github.com/mazelx/file-process-tracker/internal/processor"
)

// errBatchHadErrors marks a batch that finished but recorded per-file
// errors, so main can map it to a distinct exit code.
var errBatchHadErrors = errors.New("batch completed with errors")

var (
	// Persistent flags
	configFile    string
	jsonOutput    bool
	logLevel      string
	batchSize     int
	dryRun        bool
	computeHash   bool
	hashAlgorithm string
	excludes      []string
)

var rootCmd = &cobra.Command{
	Use:     "filetracker",
	Short:   "filetracker - batched file copying with a persistent audit trail",
	Long:    "filetracker copies files from a source directory to a target directory in bounded batches, recording each copy in a SQLite store so that re-runs never copy a file twice.",
	Version: version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, cleanup, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		proc, err := processor.New(rt.cfg, rt.db, rt.logger)
		if err != nil {
			return err
		}

		result, err := proc.ProcessBatch(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(cmd, result); err != nil {
				return err
			}
		}

		if result.Errors > 0 {
			return errBatchHadErrors
		}
		return nil
	},
}

func init() {
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "configuration file to use")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "JSON format output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "number of files to process in this batch")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "simulation mode, shows what would be done without doing it")
	rootCmd.PersistentFlags().BoolVar(&computeHash, "compute-hash", false, "enable hash computation for integrity verification")
	rootCmd.PersistentFlags().StringVar(&hashAlgorithm, "hash-algorithm", "", "hash algorithm: xxhash or sha256")
	rootCmd.PersistentFlags().StringArrayVar(&excludes, "exclude", nil, "file pattern to exclude (repeatable)")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCleanOrphansCmd())
}

// runtime bundles the collaborators every operation mode needs.
type runtime struct {
	cfg    *config.Config
	db     *database.Context
	logger zerolog.Logger
}

// newRuntime loads configuration, applies CLI overrides, opens the record
// store, and builds the logging sink. The returned cleanup releases the
// store handle and log file on every exit path.
func newRuntime(cmd *cobra.Command) (*runtime, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	applyFlagOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Execution.DryRun {
		logger.Info().Msg("dry-run mode enabled")
	}

	dbCtx, err := database.CreateDatabase(cfg.Database.Path)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("failed to open record store: %w", err)
	}

	cleanup := func() {
		_ = database.CloseDatabase(dbCtx)
		closeLog()
	}

	return &runtime{cfg: cfg, db: dbCtx, logger: logger}, cleanup, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		cfg.Processing.BatchSize = batchSize
	}
	if flags.Changed("dry-run") {
		cfg.Execution.DryRun = dryRun
	}
	if flags.Changed("compute-hash") {
		cfg.Hash.Compute = computeHash
	}
	if flags.Changed("hash-algorithm") {
		cfg.Hash.Algorithm = hashAlgorithm
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if len(excludes) > 0 {
		cfg.ExcludePatterns = append(cfg.ExcludePatterns, excludes...)
	}
}

// newLogger builds the zerolog sink: console on stderr, plus the configured
// log file when set. JSON output mode silences the console so stdout carries
// only the result document.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	var writers []io.Writer
	if !jsonOutput {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	closeLog := func() {}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closeLog = func() { _ = f.Close() }
	}

	if len(writers) == 0 {
		return zerolog.Nop().Level(zerolog.Disabled), closeLog, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return logger, closeLog, nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

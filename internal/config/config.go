// Package config loads and validates the file-process-tracker configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// HashAlgorithmXXHash and HashAlgorithmSHA256 are the supported content
// digest algorithms. xxhash is the fast default; sha256 is the
// guaranteed-available fallback.
const (
	HashAlgorithmXXHash = "xxhash"
	HashAlgorithmSHA256 = "sha256"
)

// Config mirrors the YAML configuration file layout. Values can be
// overridden by environment variables and CLI flags, in that order of
// precedence.
type Config struct {
	SourceDir string `yaml:"source_dir"`
	TargetDir string `yaml:"target_dir"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Processing struct {
		BatchSize int  `yaml:"batch_size"`
		Recursive bool `yaml:"recursive"`
	} `yaml:"processing"`

	Hash struct {
		Compute   bool   `yaml:"compute"`
		Algorithm string `yaml:"algorithm"`
	} `yaml:"hash"`

	ExcludePatterns []string `yaml:"exclude_patterns"`

	Execution struct {
		DryRun bool `yaml:"dry_run"`
	} `yaml:"execution"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Path = GetDBPath()
	cfg.Processing.BatchSize = 10
	cfg.Processing.Recursive = true
	cfg.Hash.Algorithm = HashAlgorithmXXHash
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads the YAML configuration file and applies environment overrides.
// A .env file in the working directory is loaded first, best-effort.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if cfg.Database.Path == "" {
		cfg.Database.Path = GetDBPath()
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SOURCE_DIR"); v != "" {
		c.SourceDir = v
	}
	if v := os.Getenv("TARGET_DIR"); v != "" {
		c.TargetDir = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.BatchSize = n
		}
	}
	if v := os.Getenv("RECURSIVE"); v != "" {
		c.Processing.Recursive = parseBool(v, c.Processing.Recursive)
	}
	if v := os.Getenv("COMPUTE_HASH"); v != "" {
		c.Hash.Compute = parseBool(v, c.Hash.Compute)
	}
	if v := os.Getenv("HASH_ALGORITHM"); v != "" {
		c.Hash.Algorithm = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		c.Execution.DryRun = parseBool(v, c.Execution.DryRun)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true
	case "false", "no", "0":
		return false
	}
	return fallback
}

// Validate checks the fields every operation mode depends on. Source
// directory existence is checked later, by the processor, since the
// read-only modes do not touch it.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("required configuration field missing: source_dir")
	}
	if c.TargetDir == "" {
		return fmt.Errorf("required configuration field missing: target_dir")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("required configuration field missing: database.path")
	}
	if c.Processing.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive: %d", c.Processing.BatchSize)
	}

	switch c.Hash.Algorithm {
	case HashAlgorithmXXHash, HashAlgorithmSHA256:
	default:
		return fmt.Errorf("unsupported hash algorithm: %s", c.Hash.Algorithm)
	}

	for _, pattern := range c.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	return nil
}

// GetTrackerDir resolves the base directory for tracker state. FILETRACKER_DIR
// takes precedence, then the XDG data directory, then a temp-dir fallback.
func GetTrackerDir() string {
	if explicit := os.Getenv("FILETRACKER_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "filetracker")
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "filetracker")
}

// GetDBPath returns the default path of the SQLite record store.
func GetDBPath() string {
	return filepath.Join(GetTrackerDir(), "tracker.db")
}

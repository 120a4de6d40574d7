// Package hasher computes content digests of files for integrity tracking.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/mazelx/file-process-tracker/internal/config"
)

// chunkSize bounds memory use regardless of file size.
const chunkSize = 8 * 1024

// Hasher computes hex digests with a fixed algorithm. The algorithm is
// resolved once at construction; an unknown name falls back to sha256 with a
// single warning, never a per-file probe.
type Hasher struct {
	algorithm string
}

// New resolves the requested algorithm and returns a ready Hasher.
func New(algorithm string, logger zerolog.Logger) *Hasher {
	switch algorithm {
	case config.HashAlgorithmXXHash, config.HashAlgorithmSHA256:
	default:
		logger.Warn().
			Str("requested", algorithm).
			Str("fallback", config.HashAlgorithmSHA256).
			Msg("hash algorithm not available, falling back")
		algorithm = config.HashAlgorithmSHA256
	}
	return &Hasher{algorithm: algorithm}
}

// Algorithm returns the algorithm the Hasher resolved to.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// ComputeHash streams the file in fixed-size chunks and returns the lowercase
// hex digest. The source file is only ever read.
func (h *Hasher) ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var digest hash.Hash
	switch h.algorithm {
	case config.HashAlgorithmXXHash:
		digest = xxhash.New()
	default:
		digest = sha256.New()
	}

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

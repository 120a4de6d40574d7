// Package selector enumerates candidate source files in deterministic order.
package selector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrSourceDirNotFound indicates the source root is missing or not a directory.
var ErrSourceDirNotFound = errors.New("source directory not found")

// SourceFile is one candidate file under the source root.
type SourceFile struct {
	Path string
	Name string
	Size int64
}

// ListSourceFiles enumerates regular files under root, applies the exclude
// glob patterns against base filenames, and returns the result sorted
// lexicographically by base name. The sort is what keeps batch boundaries
// stable across repeated runs over an unchanging source directory.
func ListSourceFiles(root string, recursive bool, excludePatterns []string) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceDirNotFound, root)
	}

	var files []SourceFile
	if recursive {
		files, err = walkFiles(root, excludePatterns)
	} else {
		files, err = listFiles(root, excludePatterns)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name < files[j].Name
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

func walkFiles(root string, excludePatterns []string) ([]SourceFile, error) {
	var files []SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if isExcluded(d.Name(), excludePatterns) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, SourceFile{Path: path, Name: d.Name(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source directory: %w", err)
	}
	return files, nil
}

func listFiles(root string, excludePatterns []string) ([]SourceFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list source directory: %w", err)
	}

	var files []SourceFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if isExcluded(entry.Name(), excludePatterns) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, SourceFile{
			Path: filepath.Join(root, entry.Name()),
			Name: entry.Name(),
			Size: info.Size(),
		})
	}
	return files, nil
}

// isExcluded matches the base filename against each pattern, first match
// short-circuits. Patterns are validated at config load, so match errors are
// treated as non-matches here.
func isExcluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

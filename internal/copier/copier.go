// Package copier performs single-file copies with post-copy verification.
package copier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Kind categorises a copy failure so the orchestrator can log structured
// error types instead of opaque OS errors.
type Kind string

const (
	// KindTargetExists: the target already exists; existing target wins.
	KindTargetExists Kind = "TARGET_EXISTS"
	// KindVerification: the target was not present after the copy.
	KindVerification Kind = "VERIFICATION_FAILED"
	// KindSizeMismatch: target byte count differed from source after copy.
	KindSizeMismatch Kind = "SIZE_MISMATCH"
	// KindPermission: the OS denied access somewhere in the protocol.
	KindPermission Kind = "PERMISSION_DENIED"
	// KindSystem: any other OS-level failure.
	KindSystem Kind = "SYSTEM_ERROR"
)

// Error is a categorised copy failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Copier copies files from source to target. In simulation mode it reports
// success without touching the filesystem.
type Copier struct {
	simulate bool
}

func New(simulate bool) *Copier {
	return &Copier{simulate: simulate}
}

// CopyFile copies one file and verifies the result:
//
//  1. fail if target exists (no overwrite policy)
//  2. short-circuit in simulation mode
//  3. create missing parent directories
//  4. copy bytes plus mode and mtime where the platform allows
//  5. verify the target now exists
//  6. compare byte sizes; on mismatch delete the target and fail
//
// A size-mismatched or unverifiable target never survives the call, so a
// partially-written file cannot masquerade as a successful copy.
func (c *Copier) CopyFile(source, target string) error {
	if _, err := os.Stat(target); err == nil {
		return &Error{Kind: KindTargetExists, Path: target}
	}

	if c.simulate {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return classify(target, err)
	}

	srcInfo, err := os.Stat(source)
	if err != nil {
		return classify(source, err)
	}

	if err := copyContents(source, target, srcInfo); err != nil {
		return classify(target, err)
	}

	targetInfo, err := os.Stat(target)
	if err != nil {
		return &Error{Kind: KindVerification, Path: target, Err: err}
	}

	if srcInfo.Size() != targetInfo.Size() {
		_ = os.Remove(target)
		return &Error{
			Kind: KindSizeMismatch,
			Path: target,
			Err:  fmt.Errorf("source %d bytes, target %d bytes", srcInfo.Size(), targetInfo.Size()),
		}
	}

	return nil
}

func copyContents(source, target string, srcInfo os.FileInfo) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return err
	}

	// Best-effort metadata preservation.
	_ = os.Chmod(target, srcInfo.Mode().Perm())
	_ = os.Chtimes(target, srcInfo.ModTime(), srcInfo.ModTime())

	return nil
}

func classify(path string, err error) error {
	if os.IsPermission(err) {
		return &Error{Kind: KindPermission, Path: path, Err: err}
	}
	return &Error{Kind: KindSystem, Path: path, Err: err}
}

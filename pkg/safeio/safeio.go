// Package safeio provides guarded filesystem writes for generated artifacts.
//
// Every write goes through an allow-list and size check, and an overwrite may
// be preceded by a timestamped backup. A requested backup that fails aborts
// the write: the original file is never replaced without a confirmed copy.
package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteOptions controls a single guarded write.
type WriteOptions struct {
	// Overwrite permits replacing an existing file. When false and the
	// target exists, WriteFile returns FileExistsError.
	Overwrite bool
	// Backup copies the existing file to a timestamped sibling before an
	// overwrite. Ignored when the target does not exist.
	Backup bool
	// MaxSizeBytes caps the content size. Zero means no limit.
	MaxSizeBytes int64
	// AllowedRoots restricts where writes may land. Empty means no
	// restriction (callers should only do that in tests).
	AllowedRoots []string
}

// WriteResult describes the outcome of a guarded write.
type WriteResult struct {
	Path       string `json:"path"`
	Written    bool   `json:"written"`
	BackupPath string `json:"backup_path,omitempty"`
}

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	if strings.Contains(c, "..") {
		return "", errors.New("path traversal detected")
	}
	return filepath.ToSlash(c), nil
}

// Contained reports whether path resolves to a location within root.
func Contained(root, path string) (bool, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve root: %w", err)
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, pathAbs)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	ok, err := Contained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("file path is outside base directory")
	}
	// #nosec G304 -- containment verified above
	return os.ReadFile(filePath)
}

// WriteFile applies a guarded write of content to path.
//
// Failure modes, in check order: PathNotAllowedError, ContentTooLargeError,
// FileExistsError, BackupFailedError. On any failure the original file (if
// one exists) is left byte-for-byte untouched.
func WriteFile(path string, content []byte, opts WriteOptions) (*WriteResult, error) {
	if len(opts.AllowedRoots) > 0 {
		allowed := false
		for _, root := range opts.AllowedRoots {
			ok, err := Contained(root, path)
			if err != nil {
				return nil, err
			}
			if ok {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &PathNotAllowedError{Path: path, AllowedRoots: opts.AllowedRoots}
		}
	}

	if opts.MaxSizeBytes > 0 && int64(len(content)) > opts.MaxSizeBytes {
		return nil, &ContentTooLargeError{Path: path, Size: int64(len(content)), Max: opts.MaxSizeBytes}
	}

	result := &WriteResult{Path: path}

	info, err := os.Stat(path)
	exists := err == nil && !info.IsDir()
	if err == nil && info.IsDir() {
		return nil, fmt.Errorf("target %s is a directory", path)
	}

	if exists {
		if !opts.Overwrite {
			return nil, &FileExistsError{Path: path}
		}
		if opts.Backup {
			backupPath, err := backupFile(path)
			if err != nil {
				return nil, &BackupFailedError{Path: path, Err: err}
			}
			result.BackupPath = backupPath
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	if err := writeFilePreservePerms(path, content); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	result.Written = true
	return result, nil
}

// writeBackup is swapped out in tests to exercise the backup-failure path.
var writeBackup = os.WriteFile

// backupFile copies path to a timestamped sibling and verifies the copy
// before reporting success.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller validated path against allow-list
	if err != nil {
		return "", fmt.Errorf("read original: %w", err)
	}

	backupPath := fmt.Sprintf("%s.bak.%s", path, time.Now().UTC().Format("20060102T150405"))
	if _, err := os.Stat(backupPath); err == nil {
		// Same-second collision from a previous backup; add nanoseconds.
		backupPath = fmt.Sprintf("%s.bak.%s", path, time.Now().UTC().Format("20060102T150405.000000000"))
	}

	if err := writeBackup(backupPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	// Confirm the backup landed with the full content before allowing the
	// overwrite to proceed.
	st, err := os.Stat(backupPath)
	if err != nil || st.Size() != int64(len(data)) {
		return "", fmt.Errorf("backup verification failed for %s", backupPath)
	}

	return backupPath, nil
}

// writeFilePreservePerms writes data to path preserving existing file mode
// when possible. New files get 0644. The content lands in a temp sibling
// first and is renamed into place, so a failed partial write can never
// destroy an existing file.
func writeFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

package safeio

import "fmt"

// PathNotAllowedError reports a write target outside the configured allow-list.
type PathNotAllowedError struct {
	Path         string
	AllowedRoots []string
}

func (e *PathNotAllowedError) Error() string {
	return fmt.Sprintf("path %s is outside the allowed roots %v", e.Path, e.AllowedRoots)
}

// FileExistsError reports a refusal to overwrite an existing file.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("file %s already exists and overwrite is disabled", e.Path)
}

// ContentTooLargeError reports content exceeding the configured size limit.
type ContentTooLargeError struct {
	Path string
	Size int64
	Max  int64
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("content for %s is %d bytes, exceeds limit of %d", e.Path, e.Size, e.Max)
}

// BackupFailedError reports a failed pre-overwrite backup. The original file
// is left untouched when this error is returned.
type BackupFailedError struct {
	Path string
	Err  error
}

func (e *BackupFailedError) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
}

func (e *BackupFailedError) Unwrap() error {
	return e.Err
}

package scanner

import (
	"errors"
	"fmt"
)

// Operations reported in FileError.Op.
const (
	OpRead  = "read"
	OpParse = "parse"
)

var (
	// ErrRead is matched by every FileError raised while reading a file.
	ErrRead = errors.New("read python file")
	// ErrFileTooLarge indicates a file above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidPattern indicates a malformed exclude glob.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)

// FileError records which file failed and during which operation.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes ErrRead for read failures alongside the underlying cause.
func (e *FileError) Unwrap() []error {
	if e.Op == OpRead {
		return []error{ErrRead, e.Err}
	}

	return []error{e.Err}
}

package appfile

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrInvalidFile is returned when the file at the given path is not a
// SQLite database, or is a SQLite database created by another application.
var ErrInvalidFile = errors.New("failed to read the file, its format is invalid")

// OpenError is returned when the file could not be opened or created at
// the filesystem level. It keeps the original path for diagnostics.
type OpenError struct {
	Path  string
	Cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open file %s: %v", e.Path, e.Cause)
}

func (e *OpenError) Unwrap() error { return e.Cause }

// ReadError is returned when a header or catalog read failed for a reason
// other than a format mismatch.
type ReadError struct {
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read: %v", e.Cause)
}

func (e *ReadError) Unwrap() error { return e.Cause }

// WriteError is returned when the initialization transaction or an upgrade
// step failed to execute or commit. The transaction leaves no partial
// state behind.
type WriteError struct {
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write changes: %v", e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// classifyRead maps a read failure to ErrInvalidFile when the driver
// reports that the file is not a SQLite database, and to ReadError
// otherwise.
func classifyRead(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrNotADB {
		return ErrInvalidFile
	}
	return &ReadError{Cause: err}
}

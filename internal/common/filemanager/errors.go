package filemanager

import (
	"errors"
	"fmt"
	"os"
)

// IOError is a local filesystem failure. FolderLevel marks failures that make
// the rest of the folder unprocessable (permission errors on the folder itself).
type IOError struct {
	Op          string
	Path        string
	Err         error
	FolderLevel bool
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s '%s': %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Kind() string  { return "IOError" }

func newIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsPermission reports whether err is a permission failure
func IsPermission(err error) bool {
	return errors.Is(err, os.ErrPermission)
}

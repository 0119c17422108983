package table

import (
	"errors"
	"fmt"
)

// ErrUnsupported indicates a file extension no reader claims.
var ErrUnsupported = errors.New("unsupported file format")

// UnreadableInputError indicates no supported parse succeeded for an
// input file.
type UnreadableInputError struct {
	Path string
	Err  error
}

func (e *UnreadableInputError) Error() string {
	return fmt.Sprintf("unreadable input %s: %v", e.Path, e.Err)
}

func (e *UnreadableInputError) Unwrap() error { return e.Err }

// FileTooLargeError indicates an input over the ingestion size cap.
type FileTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s is %d bytes (limit %d)", e.Path, e.Size, e.Limit)
}

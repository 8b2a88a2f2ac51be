package record

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordingInit indicates the output container could not be created.
	ErrRecordingInit = errors.New("record: cannot initialize recording")

	// ErrRecordingWrite indicates a frame could not be encoded or the
	// container could not be finalized.
	ErrRecordingWrite = errors.New("record: cannot write recording")
)

// RecordingError wraps an encoder or filesystem error with the failed
// operation. It matches both its kind and the underlying error.
type RecordingError struct {
	Op      string
	Path    string
	Kind    error
	Wrapped error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("record: %s %s: %v", e.Op, e.Path, e.Wrapped)
}

func (e *RecordingError) Unwrap() []error {
	return []error{e.Kind, e.Wrapped}
}

func initError(path string, err error) error {
	return &RecordingError{Op: "open", Path: path, Kind: ErrRecordingInit, Wrapped: err}
}

func writeError(op, path string, err error) error {
	return &RecordingError{Op: op, Path: path, Kind: ErrRecordingWrite, Wrapped: err}
}

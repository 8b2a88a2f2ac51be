package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSample indicates a line that cannot become a grid. The line
	// is dropped; it never affects previously published grids.
	ErrMalformedSample = errors.New("grid: malformed sample")

	// ErrShape indicates a grid shape that is not at least 1x1 or a value
	// slice that does not match its shape.
	ErrShape = errors.New("grid: invalid shape")
)

// MalformedSampleError wraps ErrMalformedSample with the offending line.
type MalformedSampleError struct {
	Line   string
	Reason string
}

func (e *MalformedSampleError) Error() string {
	return fmt.Sprintf("grid: malformed sample: %s", e.Reason)
}

func (e *MalformedSampleError) Unwrap() error {
	return ErrMalformedSample
}

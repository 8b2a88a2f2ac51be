package source

import (
	"errors"
	"fmt"
)

// ErrTransportLost indicates the transport failed or reached EOF. The last
// published grid stays in the frame buffer.
var ErrTransportLost = errors.New("source: transport lost")

type TransportError struct {
	Lines   uint64
	Wrapped error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("source: transport lost after %d lines: %v", e.Lines, e.Wrapped)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransportLost, e.Wrapped}
}

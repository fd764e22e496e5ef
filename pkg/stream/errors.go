// ABOUTME: Error taxonomy for the stream copier
// ABOUTME: Configuration, read and write failures with partial counts
package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned before any I/O when Config is unusable.
	ErrInvalidConfiguration = errors.New("stream: invalid configuration")

	// ErrRead matches any *ReadError via errors.Is.
	ErrRead = errors.New("stream: read failed")

	// ErrWrite matches any *WriteError via errors.Is.
	ErrWrite = errors.New("stream: write failed")
)

// ReadError reports a source failure. Samples is the count transferred before it.
type ReadError struct {
	Samples int64
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("stream: read failed after %d samples: %v", e.Samples, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRead) match.
func (e *ReadError) Is(target error) bool { return target == ErrRead }

// WriteError reports a sink failure. Samples is the count transferred before it,
// including whole samples the sink accepted in the failing write.
type WriteError struct {
	Samples int64
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("stream: write failed after %d samples: %v", e.Samples, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrWrite) match.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

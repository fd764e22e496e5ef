// ABOUTME: Source and Sink contracts for the stream copier
// ABOUTME: Adapts plain io.Readers into exhaustion-aware sources
package stream

import (
	"errors"
	"io"
)

// Source is a readable byte stream that can report exhaustion.
type Source interface {
	io.Reader

	// Exhausted reports whether the source has no more data to give.
	Exhausted() bool
}

// Sink is a writable byte stream that preserves write order.
type Sink interface {
	io.Writer
}

// ReaderSource adapts an io.Reader into a Source. It becomes exhausted
// once the underlying reader has returned io.EOF.
type ReaderSource struct {
	r   io.Reader
	eof bool
}

// NewReaderSource wraps r. If r already implements Source it is returned as is.
func NewReaderSource(r io.Reader) Source {
	if s, ok := r.(Source); ok {
		return s
	}
	return &ReaderSource{r: r}
}

// Read reads from the underlying reader and records end of stream.
func (s *ReaderSource) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}
	n, err := s.r.Read(p)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return n, err
}

// Exhausted reports whether io.EOF has been seen.
func (s *ReaderSource) Exhausted() bool {
	return s.eof
}

// Live wraps a reader that never runs dry, such as a capture device.
type Live struct {
	io.Reader
}

// Exhausted always returns false.
func (Live) Exhausted() bool { return false }

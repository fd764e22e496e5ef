// ABOUTME: Output that counts and drops audio
// ABOUTME: Used for dry runs without a playback device
package output

import (
	"fmt"
	"sync/atomic"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// Discard accepts PCM and throws it away
type Discard struct {
	format audio.Format
	bytes  atomic.Int64
	open   bool
}

// NewDiscard creates a discard output
func NewDiscard() *Discard {
	return &Discard{}
}

// Open records the format
func (d *Discard) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}
	d.format = format
	d.open = true
	return nil
}

// Write counts p
func (d *Discard) Write(p []byte) (int, error) {
	if !d.open {
		return 0, fmt.Errorf("output not initialized")
	}
	d.bytes.Add(int64(len(p)))
	return len(p), nil
}

// Bytes returns the number of bytes written
func (d *Discard) Bytes() int64 {
	return d.bytes.Load()
}

// Frames returns the number of whole frames written
func (d *Discard) Frames() int64 {
	size := d.format.FrameSize()
	if size == 0 {
		return 0
	}
	return d.bytes.Load() / int64(size)
}

// Close marks the output closed
func (d *Discard) Close() error {
	d.open = false
	return nil
}

//go:build !portaudio

// ABOUTME: PortAudio output placeholder for builds without the portaudio tag
// ABOUTME: Open and Write fail so callers can fall back to another output
package output

import (
	"errors"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

var errNoPortAudio = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio is unavailable in this build
type PortAudio struct{}

// NewPortAudio returns an output whose Open always fails
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open reports that PortAudio is not compiled in
func (p *PortAudio) Open(audio.Format) error {
	return errNoPortAudio
}

// Write reports that PortAudio is not compiled in
func (p *PortAudio) Write([]byte) (int, error) {
	return 0, errNoPortAudio
}

// Close has nothing to release
func (p *PortAudio) Close() error {
	return nil
}

// ABOUTME: Capture source interface and factory
// ABOUTME: Selects a tone, PortAudio or simulated I2S input by name
package capture

import (
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/stream"
)

// Source kinds accepted by Open
const (
	KindTone      = "tone"
	KindPortAudio = "portaudio"
	KindI2S       = "i2s"
)

// Source is a live PCM input
type Source interface {
	stream.Source
	io.Closer

	// Format returns the PCM layout of bytes produced by Read
	Format() audio.Format
}

// Open creates the named capture source. The tone source is paced to
// real time so it behaves like a microphone.
func Open(kind string, format audio.Format) (Source, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture format: %w", err)
	}

	switch kind {
	case KindTone, "":
		tone, err := NewTone(format, DefaultToneFrequency)
		if err != nil {
			return nil, err
		}
		tone.Realtime = true
		return tone, nil
	case KindPortAudio:
		return NewMicrophone(format)
	case KindI2S:
		return openBoard(format)
	default:
		return nil, fmt.Errorf("unknown capture source: %q", kind)
	}
}

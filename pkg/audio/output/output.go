// ABOUTME: Audio output interface definition and factory
// ABOUTME: Common byte-oriented interface for audio playback backends
package output

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// Output kinds accepted by New
const (
	KindOto       = "oto"
	KindPortAudio = "portaudio"
	KindWebSocket = "websocket"
	KindDiscard   = "discard"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device for PCM in format
	Open(format audio.Format) error

	// Write plays little-endian PCM bytes in the opened format. Bytes of
	// an incomplete sample are held until the next Write.
	io.Writer

	// Close releases output resources
	Close() error
}

// Config selects backend options for New
type Config struct {
	// Volume is the software volume 0-100 applied by the oto backend
	Volume int

	// URL and Codec configure the websocket backend
	URL   string
	Codec string

	Logger *zap.Logger
}

// New creates the named output
func New(kind string, cfg Config) (Output, error) {
	switch kind {
	case KindOto, "":
		o := NewOto(cfg.Logger)
		o.SetVolume(cfg.Volume)
		return o, nil
	case KindPortAudio:
		return NewPortAudio(), nil
	case KindWebSocket:
		if cfg.URL == "" {
			return nil, fmt.Errorf("websocket output requires a url")
		}
		return NewWebSocket(cfg.URL, cfg.Codec, cfg.Logger)
	case KindDiscard:
		return NewDiscard(), nil
	default:
		return nil, fmt.Errorf("unknown output: %q", kind)
	}
}

// sampleDecoder turns a PCM byte stream into internal 24-bit samples,
// carrying partial samples between calls
type sampleDecoder struct {
	bitDepth int
	pending  []byte
}

func (d *sampleDecoder) decode(p []byte) []int32 {
	data := p
	if len(d.pending) > 0 {
		data = append(d.pending, p...)
		d.pending = nil
	}

	width := d.bitDepth / 8
	count := len(data) / width
	samples := make([]int32, count)
	for i := range samples {
		samples[i] = audio.ToInternal(audio.Sample(data[i*width:], d.bitDepth), d.bitDepth)
	}

	if rest := data[count*width:]; len(rest) > 0 {
		d.pending = append([]byte(nil), rest...)
	}
	return samples
}

// ABOUTME: Opus packet decoder
// ABOUTME: Turns single Opus packets into interleaved int32 samples
package decode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// maxOpusFrame is the longest Opus frame per channel: 120ms at 48kHz
const maxOpusFrame = 5760

// OpusDecoder decodes packets produced by encode.OpusEncoder or any other
// Opus encoder with the same rate and channel count
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	pcm      []int16
}

// NewOpus creates a packet decoder for format. Opus only supports 8, 12,
// 16, 24 and 48kHz.
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:  dec,
		channels: format.Channels,
		pcm:      make([]int16, maxOpusFrame*format.Channels),
	}, nil
}

// Decode returns the samples of one packet. The result is a new slice;
// the internal int16 buffer is reused between calls.
func (d *OpusDecoder) Decode(packet []byte) ([]int32, error) {
	frames, err := d.decoder.Decode(packet, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	samples := make([]int32, frames*d.channels)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(d.pcm[i])
	}
	return samples, nil
}

// Close is a no-op
func (d *OpusDecoder) Close() error {
	return nil
}

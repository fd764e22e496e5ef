// ABOUTME: Opus packet encoder
// ABOUTME: Encodes 20ms frames of int32 samples for the websocket output
package encode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// maxOpusPacket bounds one encoded packet
const maxOpusPacket = 4000

// OpusEncoder encodes fixed 20ms frames into Opus packets
type OpusEncoder struct {
	encoder *opus.Encoder
	frame   int
	pcm     []int16
	packet  []byte
}

// NewOpus creates an encoder for format tuned for general audio
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frame := OpusFrameSamples(format)
	return &OpusEncoder{
		encoder: encoder,
		frame:   frame,
		pcm:     make([]int16, frame),
		packet:  make([]byte, maxOpusPacket),
	}, nil
}

// OpusFrameSamples returns the interleaved sample count of one 20ms Opus frame
func OpusFrameSamples(format audio.Format) int {
	return format.SampleRate / 50 * format.Channels
}

// Encode converts one frame of int32 samples to an Opus packet.
// len(samples) must equal OpusFrameSamples for the encoder's format.
// The returned packet is a copy and stays valid after the next call.
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) != e.frame {
		return nil, fmt.Errorf("opus frame needs %d samples, got %d", e.frame, len(samples))
	}

	for i, sample := range samples {
		e.pcm[i] = audio.SampleToInt16(sample)
	}

	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return append([]byte(nil), e.packet[:n]...), nil
}

// Close is a no-op
func (e *OpusEncoder) Close() error {
	return nil
}

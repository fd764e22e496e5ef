// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16, 24 or 32-bit PCM bytes
package encode

import (
	"fmt"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// Encoder turns interleaved int32 samples in the 24-bit internal range into
// encoded bytes
type Encoder interface {
	Encode(samples []int32) ([]byte, error)
	Close() error
}

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts int32 samples in 24-bit range to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	width := e.bitDepth / 8
	output := make([]byte, len(samples)*width)
	for i, sample := range samples {
		audio.PutSample(output[i*width:], audio.FromInternal(sample, e.bitDepth), e.bitDepth)
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16, 24 and 32-bit PCM audio to int32 samples
package decode

import (
	"fmt"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples in 24-bit range.
// Trailing bytes that do not form a whole sample are ignored.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	width := d.bitDepth / 8
	numSamples := len(data) / width
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		native := audio.Sample(data[i*width:], d.bitDepth)
		samples[i] = audio.ToInternal(native, d.bitDepth)
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}

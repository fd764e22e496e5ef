// ABOUTME: io.Reader that converts a PCM byte stream between formats
// ABOUTME: Maps bit depth, channel count and sample rate chunk by chunk
package resample

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/decode"
	"github.com/Sendspin/duplex-go/pkg/audio/encode"
)

const readChunkFrames = 1024

// Reader converts little-endian PCM read from src in one format into
// another. Every Read returns whole output frames.
type Reader struct {
	src       io.Reader
	from      audio.Format
	to        audio.Format
	decoder   decode.Decoder
	encoder   encode.Encoder
	resampler *Resampler

	in      []byte
	pending int
	out     []byte
	err     error
}

// NewReader wraps src. Channel conversion supports equal counts, mono to
// stereo (duplicate) and stereo to mono (average).
func NewReader(src io.Reader, from, to audio.Format) (*Reader, error) {
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source format: %w", err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target format: %w", err)
	}
	if from.Channels != to.Channels && !(from.Channels <= 2 && to.Channels <= 2) {
		return nil, fmt.Errorf("unsupported channel conversion: %d -> %d", from.Channels, to.Channels)
	}

	from.Codec, to.Codec = "pcm", "pcm"
	dec, err := decode.NewPCM(from)
	if err != nil {
		return nil, err
	}
	enc, err := encode.NewPCM(to)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		src:     src,
		from:    from,
		to:      to,
		decoder: dec,
		encoder: enc,
		in:      make([]byte, readChunkFrames*from.FrameSize()),
	}
	if from.SampleRate != to.SampleRate {
		r.resampler = New(from.SampleRate, to.SampleRate, to.Channels)
	}
	return r, nil
}

// Read fills p with converted bytes. Output is delivered in whole frames
// when p is at least one output frame long.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := len(p)
	if frame := r.to.FrameSize(); n >= frame {
		n = n / frame * frame
	}
	n = copy(p, r.out[:min(n, len(r.out))])
	r.out = r.out[n:]
	return n, nil
}

// Exhausted reports that no converted bytes remain and src has nothing
// more to give: src reached io.EOF, or src reports its own exhaustion.
// Any other error is not exhaustion; it is returned by the next Read.
func (r *Reader) Exhausted() bool {
	if len(r.out) > 0 {
		return false
	}
	if r.err != nil {
		return errors.Is(r.err, io.EOF)
	}
	if src, ok := r.src.(interface{ Exhausted() bool }); ok {
		return src.Exhausted()
	}
	return false
}

func (r *Reader) fill() {
	n, err := r.src.Read(r.in[r.pending:])
	avail := r.pending + n
	frame := r.from.FrameSize()
	whole := avail / frame * frame

	if whole > 0 {
		out, cerr := r.convert(r.in[:whole])
		if cerr != nil {
			r.err = cerr
			return
		}
		r.out = out
	}

	r.pending = copy(r.in, r.in[whole:avail])

	if err != nil {
		if errors.Is(err, io.EOF) {
			r.err = io.EOF
		} else {
			r.err = fmt.Errorf("failed to read source: %w", err)
		}
	}
}

func (r *Reader) convert(data []byte) ([]byte, error) {
	samples, err := r.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source pcm: %w", err)
	}

	samples = mapChannels(samples, r.from.Channels, r.to.Channels)

	if r.resampler != nil {
		frames := len(samples) / r.to.Channels
		out := make([]int32, r.resampler.OutputSamplesNeeded(len(samples))+2*r.to.Channels)
		if frames > 0 {
			out = out[:r.resampler.Resample(samples, out)]
		}
		samples = out
	}

	return r.encoder.Encode(samples)
}

func mapChannels(samples []int32, from, to int) []int32 {
	switch {
	case from == to:
		return samples
	case from == 1 && to == 2:
		out := make([]int32, len(samples)*2)
		for i, s := range samples {
			out[2*i] = s
			out[2*i+1] = s
		}
		return out
	case from == 2 && to == 1:
		out := make([]int32, len(samples)/2)
		for i := range out {
			out[i] = int32((int64(samples[2*i]) + int64(samples[2*i+1])) / 2)
		}
		return out
	}
	return samples
}

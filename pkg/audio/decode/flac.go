// ABOUTME: FLAC audio decoder
// ABOUTME: Streams FLAC frames as interleaved PCM bytes via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACStream decodes a FLAC file frame by frame
type FLACStream struct {
	r       io.Reader
	stream  *flac.Stream
	format  audio.Format
	pending []byte
}

// NewFLACStream parses the FLAC stream header from r
func NewFLACStream(r io.Reader) (*FLACStream, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("unsupported FLAC stream: %w", err)
	}

	return &FLACStream{
		r:      r,
		stream: stream,
		format: format,
	}, nil
}

func (s *FLACStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		frame, err := s.stream.ParseNext()
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("flac decode error: %w", err)
		}

		width := s.format.BytesPerSample()
		channels := s.format.Channels
		blockSize := int(frame.BlockSize)
		out := make([]byte, blockSize*channels*width)
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * width
				audio.PutSample(out[off:], frame.Subframes[ch].Samples[i], s.format.BitDepth)
			}
		}
		s.pending = out
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *FLACStream) Format() audio.Format { return s.format }

func (s *FLACStream) Close() error {
	_ = s.stream.Close()
	return closeReader(s.r)
}

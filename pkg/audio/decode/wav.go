// ABOUTME: WAV file stream decoder
// ABOUTME: Reads WAV containers through go-audio/wav and re-packs PCM bytes
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is how many frames are decoded per PCMBuffer call
const wavChunkFrames = 1024

// WAVStream decodes a WAV file
type WAVStream struct {
	r       io.ReadSeeker
	decoder *wav.Decoder
	format  audio.Format
	buf     *goaudio.IntBuffer
	pending []byte
	eof     bool
}

// NewWAVStream reads the WAV header from r
func NewWAVStream(r io.ReadSeeker) (*WAVStream, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	format := audio.Format{
		Codec:      "pcm",
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("unsupported WAV file: %w", err)
	}

	return &WAVStream{
		r:       r,
		decoder: decoder,
		format:  format,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			Data:           make([]int, wavChunkFrames*format.Channels),
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

func (s *WAVStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
		if len(s.pending) == 0 {
			return 0, io.EOF
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// fill decodes the next chunk of samples into pending
func (s *WAVStream) fill() error {
	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("wav decode error: %w", err)
	}
	if n == 0 || errors.Is(err, io.EOF) {
		s.eof = true
	}

	width := s.format.BytesPerSample()
	out := make([]byte, n*width)
	for i := 0; i < n; i++ {
		audio.PutSample(out[i*width:], int32(s.buf.Data[i]), s.format.BitDepth)
	}
	s.pending = out
	return nil
}

func (s *WAVStream) Format() audio.Format { return s.format }
func (s *WAVStream) Close() error         { return closeReader(s.r) }

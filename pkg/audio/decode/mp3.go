// ABOUTME: MP3 audio decoder
// ABOUTME: Streams MP3 files as 16-bit stereo PCM via go-mp3
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Stream decodes an MP3 file
type MP3Stream struct {
	r       io.Reader
	decoder *mp3.Decoder
	format  audio.Format
}

// NewMP3Stream creates a new MP3 stream. go-mp3 always outputs 16-bit stereo.
func NewMP3Stream(r io.Reader) (*MP3Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &MP3Stream{
		r:       r,
		decoder: decoder,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}

func (s *MP3Stream) Read(p []byte) (int, error) {
	n, err := s.decoder.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("mp3 decode error: %w", err)
	}
	return n, err
}

// Length returns the decoded size in bytes, or -1 when the source is not seekable
func (s *MP3Stream) Length() int64 { return s.decoder.Length() }

func (s *MP3Stream) Format() audio.Format { return s.format }
func (s *MP3Stream) Close() error         { return closeReader(s.r) }

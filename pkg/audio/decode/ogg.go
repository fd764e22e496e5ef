// ABOUTME: Ogg/Opus file stream decoder
// ABOUTME: Decodes .opus files to 16-bit PCM at 48kHz via libopusfile
package decode

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// opusFileRate is the rate libopusfile always decodes to
const opusFileRate = 48000

// OpusStream decodes an Ogg/Opus file
type OpusStream struct {
	r       io.Reader
	stream  *opus.Stream
	format  audio.Format
	pcm     []int16
	pending []byte
}

// NewOpusStream opens an Ogg/Opus stream. The channel count is taken from the OpusHead packet.
func NewOpusStream(r io.Reader) (*OpusStream, error) {
	br := bufio.NewReader(r)
	channels, err := opusHeadChannels(br)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}

	return &OpusStream{
		r:      r,
		stream: stream,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: opusFileRate,
			Channels:   channels,
			BitDepth:   16,
		},
		pcm: make([]int16, 5760*channels), // 120ms max frame
	}, nil
}

// opusHeadChannels peeks at the first Ogg page for the OpusHead channel count
func opusHeadChannels(br *bufio.Reader) (int, error) {
	head, _ := br.Peek(256)
	idx := bytes.Index(head, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(head) {
		return 0, fmt.Errorf("not an Ogg/Opus stream: OpusHead not found")
	}
	// OpusHead: magic(8) version(1) channels(1)
	channels := int(head[idx+9])
	if channels < 1 || channels > 2 {
		return 0, fmt.Errorf("unsupported opus channel count: %d", channels)
	}
	return channels, nil
}

func (s *OpusStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		n, err := s.stream.Read(s.pcm)
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("opus decode error: %w", err)
		}

		// n is samples per channel
		total := n * s.format.Channels
		out := make([]byte, total*2)
		for i := 0; i < total; i++ {
			audio.PutSample(out[i*2:], int32(s.pcm[i]), 16)
		}
		s.pending = out
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *OpusStream) Format() audio.Format { return s.format }

func (s *OpusStream) Close() error {
	_ = s.stream.Close()
	return closeReader(s.r)
}

// ABOUTME: Byte stream over an I2S bus
// ABOUTME: Converts 8-byte little-endian stereo frames to and from bus words
package i2s

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

const (
	wordSize  = 4
	frameSize = 2 * wordSize
)

// Format is the PCM layout carried by a Stream at the given rate
func Format(sampleRate int) audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: sampleRate, Channels: 2, BitDepth: 32}
}

// Stream reads and writes PCM bytes through a Bus
type Stream struct {
	bus     Bus
	format  audio.Format
	words   []uint32
	pending []byte
}

// NewStream sets the bus frequency and wraps it
func NewStream(bus Bus, sampleRate int) (*Stream, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleFrequency
	}
	if err := bus.SetSampleFrequency(uint32(sampleRate)); err != nil {
		return nil, fmt.Errorf("failed to set i2s sample frequency: %w", err)
	}
	return &Stream{bus: bus, format: Format(sampleRate)}, nil
}

// Format returns the stream's PCM layout
func (s *Stream) Format() audio.Format {
	return s.format
}

// Exhausted always reports false; a bus has no end
func (s *Stream) Exhausted() bool {
	return false
}

// Read fills p with received frames. A p shorter than one frame receives
// the frame's leading bytes and the rest is returned by the next Read.
func (s *Stream) Read(p []byte) (int, error) {
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}

	frames := len(p) / frameSize
	if frames == 0 {
		frames = 1
	}
	if cap(s.words) < frames*2 {
		s.words = make([]uint32, frames*2)
	}
	words := s.words[:frames*2]

	got, err := s.bus.ReadStereo(words)
	if got == 0 {
		return 0, err
	}

	data := p
	if len(p) < got*wordSize {
		data = make([]byte, got*wordSize)
	}
	for i := 0; i < got; i++ {
		binary.LittleEndian.PutUint32(data[i*wordSize:], words[i])
	}

	if len(p) < got*wordSize {
		n := copy(p, data)
		s.pending = data[n:]
		return n, err
	}
	return got * wordSize, err
}

// Write sends the whole frames in p. Trailing bytes of an incomplete
// frame are rejected with an error.
func (s *Stream) Write(p []byte) (int, error) {
	frames := len(p) / frameSize
	words := make([]uint32, frames*2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(p[i*wordSize:])
	}

	n, err := s.bus.WriteStereo(words)
	written := n * wordSize
	if err != nil {
		return written, fmt.Errorf("i2s write failed: %w", err)
	}
	if n < len(words) {
		return written, io.ErrShortWrite
	}
	if written < len(p) {
		return written, fmt.Errorf("i2s write of %d bytes is not frame aligned", len(p))
	}
	return written, nil
}

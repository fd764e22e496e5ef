//go:build portaudio

// ABOUTME: PortAudio microphone capture source
// ABOUTME: Reads the default input device in blocking mode
package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

const framesPerBuffer = 512

// Microphone captures from the default PortAudio input device
type Microphone struct {
	format  audio.Format
	stream  *portaudio.Stream
	buf16   []int16
	buf32   []int32
	pending []byte
}

// NewMicrophone opens and starts the default input stream
func NewMicrophone(format audio.Format) (Source, error) {
	m := &Microphone{format: format}

	var buffer interface{}
	switch format.BitDepth {
	case 16:
		m.buf16 = make([]int16, framesPerBuffer*format.Channels)
		buffer = m.buf16
	case 32:
		m.buf32 = make([]int32, framesPerBuffer*format.Channels)
		buffer = m.buf32
	default:
		return nil, fmt.Errorf("unsupported microphone bit depth: %d (supported: 16, 32)", format.BitDepth)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	s, err := portaudio.OpenDefaultStream(format.Channels, 0, float64(format.SampleRate), framesPerBuffer, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := s.Start(); err != nil {
		s.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = s
	return m, nil
}

// Format returns the capture format
func (m *Microphone) Format() audio.Format {
	return m.format
}

// Exhausted always reports false
func (m *Microphone) Exhausted() bool {
	return false
}

// Read returns captured little-endian PCM, blocking for one device buffer
// when nothing is pending.
func (m *Microphone) Read(p []byte) (int, error) {
	if len(m.pending) == 0 {
		if err := m.stream.Read(); err != nil {
			return 0, fmt.Errorf("microphone read failed: %w", err)
		}
		m.pending = m.encode()
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *Microphone) encode() []byte {
	if m.buf16 != nil {
		out := make([]byte, len(m.buf16)*2)
		for i, s := range m.buf16 {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
		}
		return out
	}
	out := make([]byte, len(m.buf32)*4)
	for i, s := range m.buf32 {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(s))
	}
	return out
}

// Close stops the stream and releases PortAudio
func (m *Microphone) Close() error {
	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			return err
		}
		if err := m.stream.Close(); err != nil {
			return err
		}
		m.stream = nil
	}
	return portaudio.Terminate()
}

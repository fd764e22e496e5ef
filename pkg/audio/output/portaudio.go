//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using PortAudio blocking writes
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

const framesPerBuffer = 512

// PortAudio output implementation
type PortAudio struct {
	stream  *portaudio.Stream
	buffer  []int16
	filled  int
	decoder sampleDecoder
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.buffer = make([]int16, framesPerBuffer*format.Channels)
	p.filled = 0
	p.decoder = sampleDecoder{bitDepth: format.BitDepth}

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), framesPerBuffer, p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Write queues PCM bytes and plays each full device buffer
func (p *PortAudio) Write(b []byte) (int, error) {
	if p.stream == nil {
		return 0, fmt.Errorf("output not opened")
	}

	for _, sample := range p.decoder.decode(b) {
		p.buffer[p.filled] = audio.SampleToInt16(sample)
		p.filled++
		if p.filled == len(p.buffer) {
			if err := p.stream.Write(); err != nil {
				return 0, fmt.Errorf("portaudio write failed: %w", err)
			}
			p.filled = 0
		}
	}

	return len(b), nil
}

// Close plays any queued samples and releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if p.filled > 0 {
			clear(p.buffer[p.filled:])
			p.stream.Write()
			p.filled = 0
		}
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}

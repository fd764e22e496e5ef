// ABOUTME: Simulated codec board capture source
// ABOUTME: Clocks a tone onto a loopback I2S bus and reads it back
package capture

import (
	"context"
	"fmt"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/i2s"
	"github.com/Sendspin/duplex-go/pkg/stream"
)

// Board reads 32-bit stereo frames from an I2S bus that a background
// goroutine feeds with a real-time tone, the way a codec's ADC would.
type Board struct {
	*i2s.Stream
	bus    *i2s.Loopback
	cancel context.CancelFunc
	done   chan error
}

// NewBoard starts the simulated board at sampleRate
func NewBoard(sampleRate int) (*Board, error) {
	bus := i2s.NewLoopback()
	rx, err := i2s.NewStream(bus, sampleRate)
	if err != nil {
		return nil, err
	}

	tone, err := NewTone(rx.Format(), DefaultToneFrequency)
	if err != nil {
		return nil, err
	}
	tone.Realtime = true

	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{Stream: rx, bus: bus, cancel: cancel, done: make(chan error, 1)}

	frame := rx.Format().FrameSize()
	go func() {
		// 20ms of frames per bus write
		_, err := stream.Copy(ctx, rx, tone, stream.Config{
			SampleWidth: frame,
			BufferSize:  frame * sampleRate / 50,
		})
		b.done <- err
	}()

	return b, nil
}

// Close stops the feeder and the bus
func (b *Board) Close() error {
	b.cancel()
	b.bus.Close()
	<-b.done
	return nil
}

// BoardFormat is the PCM layout produced by a Board
func BoardFormat(sampleRate int) audio.Format {
	return i2s.Format(sampleRate)
}

func openBoard(format audio.Format) (Source, error) {
	want := BoardFormat(format.SampleRate)
	if format.Channels != want.Channels || format.BitDepth != want.BitDepth {
		return nil, fmt.Errorf("i2s capture requires %d-channel %d-bit format, got %s", want.Channels, want.BitDepth, format)
	}
	return NewBoard(format.SampleRate)
}

// ABOUTME: Sine wave capture source
// ABOUTME: Stands in for a microphone when no input hardware is present
package capture

import (
	"fmt"
	"math"
	"time"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// DefaultToneFrequency is the pitch used by Open
const DefaultToneFrequency = 440.0

// ToneSource produces an endless sine wave at half of full scale
type ToneSource struct {
	// Realtime throttles Read so bytes are produced no faster than the
	// format's data rate.
	Realtime bool

	format    audio.Format
	frequency float64
	frame     int64
	pending   []byte
	started   time.Time
	sleep     func(time.Duration)
}

// NewTone creates a tone source in the given PCM format
func NewTone(format audio.Format, frequency float64) (*ToneSource, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tone format: %w", err)
	}
	if frequency <= 0 {
		return nil, fmt.Errorf("invalid tone frequency: %v", frequency)
	}
	return &ToneSource{
		format:    format,
		frequency: frequency,
		sleep:     time.Sleep,
	}, nil
}

// Format returns the PCM layout of generated bytes
func (t *ToneSource) Format() audio.Format {
	return t.format
}

// Exhausted always reports false
func (t *ToneSource) Exhausted() bool {
	return false
}

// Read fills p with sine samples. Frames split across reads continue
// where the previous read stopped.
func (t *ToneSource) Read(p []byte) (int, error) {
	frameSize := t.format.FrameSize()
	n := 0

	if len(t.pending) > 0 {
		c := copy(p, t.pending)
		t.pending = t.pending[c:]
		n += c
	}

	for len(p)-n >= frameSize {
		t.putFrame(p[n : n+frameSize])
		n += frameSize
	}

	if rest := len(p) - n; rest > 0 && len(t.pending) == 0 {
		frame := make([]byte, frameSize)
		t.putFrame(frame)
		n += copy(p[n:], frame)
		t.pending = frame[rest:]
	}

	if t.Realtime {
		t.pace()
	}
	return n, nil
}

func (t *ToneSource) putFrame(b []byte) {
	phase := 2 * math.Pi * t.frequency * float64(t.frame) / float64(t.format.SampleRate)
	internal := int32(math.Sin(phase) * float64(audio.Max24Bit) / 2)
	native := audio.FromInternal(internal, t.format.BitDepth)

	width := t.format.BytesPerSample()
	for ch := 0; ch < t.format.Channels; ch++ {
		audio.PutSample(b[ch*width:], native, t.format.BitDepth)
	}
	t.frame++
}

// pace sleeps until the wall clock catches up with the frames produced
func (t *ToneSource) pace() {
	if t.started.IsZero() {
		t.started = time.Now()
	}
	due := time.Duration(t.frame * int64(time.Second) / int64(t.format.SampleRate))
	if ahead := due - time.Since(t.started); ahead > 0 {
		t.sleep(ahead)
	}
}

// Close is a no-op
func (t *ToneSource) Close() error {
	return nil
}

// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

const drainPoll = 10 * time.Millisecond

// Oto output implementation using oto library
type Oto struct {
	logger     *zap.Logger
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	decoder    sampleDecoder
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates a new Oto output
func NewOto(logger *zap.Logger) *Oto {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oto{
		logger: logger,
		volume: 100,
	}
}

// Open initializes the output device. Input of any supported bit depth is
// played as 16-bit.
func (o *Oto) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}
	o.decoder = sampleDecoder{bitDepth: format.BitDepth}

	// oto allows one context per process
	if o.otoCtx != nil {
		if o.sampleRate != format.SampleRate || o.channels != format.Channels {
			o.logger.Warn("format change ignored, oto cannot reinitialize",
				zap.Int("sampleRate", o.sampleRate), zap.Int("channels", o.channels),
				zap.Int("requestedRate", format.SampleRate), zap.Int("requestedChannels", format.Channels))
		}
		o.startPlayer()
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = format.SampleRate
	o.channels = format.Channels
	o.startPlayer()

	o.logger.Info("audio output initialized",
		zap.Int("sampleRate", format.SampleRate), zap.Int("channels", format.Channels))
	return nil
}

func (o *Oto) startPlayer() {
	if o.ready {
		return
	}
	if err := o.otoCtx.Resume(); err != nil {
		o.logger.Warn("failed to resume oto context", zap.Error(err))
	}

	// Persistent player fed by a pipe
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true
}

// Write plays PCM bytes, blocking until the player accepts them
func (o *Oto) Write(p []byte) (int, error) {
	if !o.ready {
		return 0, fmt.Errorf("output not initialized")
	}

	samples := applyVolume(o.decoder.decode(p), o.volume, o.muted)

	output := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(s)))
	}

	if _, err := o.pipeWriter.Write(output); err != nil {
		return 0, fmt.Errorf("pipe write failed: %w", err)
	}
	return len(p), nil
}

// Close lets queued audio finish, then stops playback. The oto context is
// suspended and reused by a later Open.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
		for o.player != nil && o.player.IsPlaying() {
			time.Sleep(drainPoll)
		}
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			o.logger.Warn("failed to suspend oto context", zap.Error(err))
		}
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
	o.logger.Debug("volume set", zap.Int("volume", volume))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted = muted
	o.logger.Debug("mute set", zap.Bool("muted", muted))
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	return o.muted
}

// applyVolume applies volume and mute to samples with clipping protection
func applyVolume(samples []int32, volume int, muted bool) []int32 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int32, len(samples))
	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)

		// Clamp to 24-bit range to prevent overflow
		if scaled > audio.Max24Bit {
			scaled = audio.Max24Bit
		} else if scaled < audio.Min24Bit {
			scaled = audio.Min24Bit
		}

		result[i] = int32(scaled)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}

// ABOUTME: Duplex application orchestration
// ABOUTME: Records from capture, plays the recording back and then plays a music file
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/internal/config"
	"github.com/Sendspin/duplex-go/internal/sequence"
	"github.com/Sendspin/duplex-go/internal/storage"
	"github.com/Sendspin/duplex-go/internal/ui"
	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/capture"
	"github.com/Sendspin/duplex-go/pkg/audio/decode"
	"github.com/Sendspin/duplex-go/pkg/audio/encode"
	"github.com/Sendspin/duplex-go/pkg/audio/output"
	"github.com/Sendspin/duplex-go/pkg/audio/resample"
	"github.com/Sendspin/duplex-go/pkg/stream"
)

// CaptureFunc opens a capture source
type CaptureFunc func(kind string, format audio.Format) (capture.Source, error)

// OutputFunc creates a playback output
type OutputFunc func(kind string, cfg output.Config) (output.Output, error)

// volumeSetter is implemented by outputs with software volume
type volumeSetter interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// App runs the record, playback and music phases against one storage volume
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	volume *storage.Volume

	openCapture CaptureFunc
	newOutput   OutputFunc
	tui         *tea.Program

	mu      sync.Mutex
	current output.Output
	level   int
	muted   bool
}

// Option configures an App
type Option func(*App)

// WithCapture replaces the capture factory
func WithCapture(fn CaptureFunc) Option {
	return func(a *App) { a.openCapture = fn }
}

// WithOutput replaces the output factory
func WithOutput(fn OutputFunc) Option {
	return func(a *App) { a.newOutput = fn }
}

// WithUI sends status and progress to a running TUI program
func WithUI(p *tea.Program) Option {
	return func(a *App) { a.tui = p }
}

// New creates an application
func New(cfg *config.Config, volume *storage.Volume, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:         cfg,
		logger:      logger,
		volume:      volume,
		openCapture: capture.Open,
		newOutput:   output.New,
		level:       cfg.Volume,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordPath is the recording location on the volume. The extension
// follows the configured record format.
func (a *App) RecordPath() string {
	p := a.cfg.RecordPath
	if a.cfg.RecordFormat == "wav" {
		p = strings.TrimSuffix(p, path.Ext(p)) + ".wav"
	}
	return p
}

// Run drives the full sequence and returns the phase it ended in
func (a *App) Run(ctx context.Context) (sequence.Phase, error) {
	seq := &sequence.Sequencer{
		Steps: map[sequence.Phase]sequence.StepFunc{
			sequence.Recording:   a.Record,
			sequence.PlayingBack: a.PlayRecording,
			sequence.PlayingFile: func(ctx context.Context) error {
				return a.PlayFile(ctx, a.cfg.MusicFile)
			},
		},
		Interval:    a.cfg.IdleInterval,
		MaxAttempts: a.cfg.MaxAttempts,
		Logger:      a.logger,
		OnPhase: func(from, to sequence.Phase) {
			a.logger.Debug("phase transition", zap.Stringer("from", from), zap.Stringer("to", to))
			a.send(ui.StatusMsg{Phase: to.String(), Attempt: 1})
		},
		OnError: func(phase sequence.Phase, attempt int, err error) {
			a.send(ui.StatusMsg{Phase: phase.String(), Attempt: attempt + 1, Err: err.Error()})
		},
	}

	a.logger.Info("sequence starting",
		zap.Stringer("capture", a.cfg.CaptureFormat()),
		zap.Stringer("playback", a.cfg.PlaybackFormat()),
		zap.Int("record_seconds", a.cfg.RecordSeconds))

	return seq.Run(ctx)
}

// Record copies RecordSeconds of capture into the recording file
func (a *App) Record(ctx context.Context) error {
	src, err := a.openCapture(a.cfg.Capture, a.cfg.CaptureFormat())
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer src.Close()
	format := src.Format()

	name := a.RecordPath()
	f, err := a.volume.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var sink io.Writer = f
	var wav *encode.WAVWriter
	if a.cfg.RecordFormat == "wav" {
		wav, err = encode.NewWAVWriter(f, format)
		if err != nil {
			return err
		}
		sink = wav
	}

	logger := a.logger.With(zap.String("session", uuid.NewString()), zap.String("path", name))
	logger.Info("recording", zap.Stringer("format", format), zap.Int("seconds", a.cfg.RecordSeconds))
	a.sendStream(a.cfg.Capture, name, format)

	n, err := stream.Copy(ctx, sink, src, a.copyConfig(format, a.cfg.RecordSamples(), logger))
	if wav != nil {
		if cerr := wav.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to finish wav: %w", cerr)
		}
	}
	if err != nil {
		return err
	}
	if cerr := f.Close(); cerr != nil {
		return fmt.Errorf("failed to close recording: %w", cerr)
	}

	logger.Info("recording complete", zap.Int64("samples", n))
	return nil
}

// PlayRecording plays the recording file until no bytes remain
func (a *App) PlayRecording(ctx context.Context) error {
	name := a.RecordPath()

	if a.cfg.RecordFormat == "wav" {
		f, err := a.volume.Open(name)
		if err != nil {
			return err
		}
		s, err := decode.OpenStream(f, name, a.cfg.CaptureFormat())
		if err != nil {
			f.Close()
			return err
		}
		defer s.Close()
		return a.play(ctx, s, s.Format(), name)
	}

	src, err := a.volume.OpenSource(name)
	if err != nil {
		return err
	}
	defer src.Close()
	return a.play(ctx, src, a.cfg.CaptureFormat(), name)
}

// PlayFile plays name from the music directory, or the first music file
// when name is empty or missing
func (a *App) PlayFile(ctx context.Context, name string) error {
	p, err := a.volume.Resolve(a.cfg.MusicDir, name, a.cfg.MusicExt)
	if err != nil {
		return err
	}

	f, err := a.volume.Open(p)
	if err != nil {
		return err
	}
	s, err := decode.OpenStream(f, p, a.cfg.CaptureFormat())
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer s.Close()

	return a.play(ctx, s, s.Format(), p)
}

// Passthrough copies capture straight to the output. A non-positive
// seconds runs until ctx is done.
func (a *App) Passthrough(ctx context.Context, seconds int) error {
	src, err := a.openCapture(a.cfg.Capture, a.cfg.CaptureFormat())
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer src.Close()

	var target int64
	if seconds > 0 {
		target = int64(seconds) * int64(a.cfg.PlaybackRate)
	}
	return a.playTo(ctx, src, src.Format(), a.cfg.Capture, target)
}

func (a *App) play(ctx context.Context, src io.Reader, from audio.Format, name string) error {
	return a.playTo(ctx, src, from, name, 0)
}

func (a *App) playTo(ctx context.Context, src io.Reader, from audio.Format, name string, target int64) error {
	to := a.cfg.PlaybackFormat()
	conv, err := resample.NewReader(src, from, to)
	if err != nil {
		return err
	}

	a.mu.Lock()
	level, muted := a.level, a.muted
	a.mu.Unlock()

	out, err := a.newOutput(a.cfg.Output, output.Config{
		Volume: level,
		URL:    a.cfg.WebSocketURL,
		Codec:  a.cfg.WebSocketCodec,
		Logger: a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if vs, ok := out.(volumeSetter); ok {
		vs.SetMuted(muted)
	}
	if err := out.Open(to); err != nil {
		if closeErr := out.Close(); closeErr != nil {
			a.logger.Debug("failed to close unopened output", zap.Error(closeErr))
		}
		return fmt.Errorf("failed to open output: %w", err)
	}
	a.setCurrent(out)
	defer a.setCurrent(nil)

	logger := a.logger.With(zap.String("source", name), zap.String("output", a.cfg.Output))
	logger.Info("playing", zap.Stringer("from", from), zap.Stringer("to", to))
	a.sendStream(name, a.cfg.Output, from)

	n, err := stream.Copy(ctx, out, conv, a.copyConfig(to, target, logger))
	closeErr := out.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}

	logger.Info("playback complete", zap.Int64("samples", n))
	return nil
}

func (a *App) copyConfig(format audio.Format, target int64, logger *zap.Logger) stream.Config {
	return stream.Config{
		SampleWidth:   format.FrameSize(),
		TargetSamples: target,
		BufferSize:    a.cfg.BufferSize,
		CarryPartial:  a.cfg.CarryPartial,
		ProgressEvery: a.cfg.ProgressEvery,
		OnProgress: func(transferred, target int64) {
			a.send(ui.ProgressMsg{Transferred: transferred, Target: target})
		},
		Logger: logger,
	}
}

// WatchVolume applies TUI volume changes to the playing output until ctx
// is done or the user quits
func (a *App) WatchVolume(ctx context.Context, ctrl *ui.VolumeControl) {
	for {
		select {
		case change := <-ctrl.Changes:
			a.SetVolume(change.Volume, change.Muted)
		case <-ctrl.Quit:
			a.logger.Info("quit requested")
			return
		case <-ctx.Done():
			return
		}
	}
}

// SetVolume updates the volume of the current and all later outputs
func (a *App) SetVolume(volume int, muted bool) {
	a.mu.Lock()
	a.level, a.muted = volume, muted
	out := a.current
	a.mu.Unlock()

	if vs, ok := out.(volumeSetter); ok {
		vs.SetVolume(volume)
		vs.SetMuted(muted)
	}
	a.logger.Debug("volume changed", zap.Int("volume", volume), zap.Bool("muted", muted))
}

func (a *App) setCurrent(out output.Output) {
	a.mu.Lock()
	a.current = out
	a.mu.Unlock()
}

func (a *App) sendStream(from, to string, format audio.Format) {
	a.send(ui.StatusMsg{
		Source:     from,
		Sink:       to,
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
	})
}

func (a *App) send(msg tea.Msg) {
	if a.tui != nil {
		a.tui.Send(msg)
	}
}

// IsPhaseError reports whether err ended the sequence in Failed
func IsPhaseError(err error) bool {
	var pe *sequence.PhaseError
	return errors.As(err, &pe)
}

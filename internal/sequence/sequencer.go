// ABOUTME: Ticker-driven phase sequencer
// ABOUTME: Runs one step per tick, advances on success and retries on failure
package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the pause between ticks
const DefaultInterval = 20 * time.Millisecond

// StepFunc performs the work of one phase
type StepFunc func(ctx context.Context) error

// Sequencer walks Idle to Done, running Steps[phase] on each tick.
// A phase without a step is passed through. A failing step is retried on
// later ticks; after MaxAttempts failures the sequence ends in Failed.
// MaxAttempts of zero retries forever.
type Sequencer struct {
	Steps       map[Phase]StepFunc
	Interval    time.Duration
	MaxAttempts int

	// OnPhase is called after every transition
	OnPhase func(from, to Phase)

	// OnError is called after every failed attempt
	OnError func(phase Phase, attempt int, err error)

	Logger *zap.Logger

	mu    sync.Mutex
	phase Phase
}

// PhaseError reports the step failure that ended a sequence
type PhaseError struct {
	Phase    Phase
	Attempts int
	Err      error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Phase, e.Attempts, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Phase returns the current phase
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Sequencer) transition(to Phase) {
	s.mu.Lock()
	from := s.phase
	s.phase = to
	s.mu.Unlock()

	if s.OnPhase != nil {
		s.OnPhase(from, to)
	}
}

// Run drives the sequence until a terminal phase or ctx is done. It
// returns the final phase, a *PhaseError when it ended in Failed, or the
// context error.
func (s *Sequencer) Run(ctx context.Context) (Phase, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempts := 0
	for {
		phase := s.Phase()
		if phase.Terminal() {
			return phase, nil
		}

		step := s.Steps[phase]
		if step == nil {
			s.transition(phase.Next())
			continue
		}

		err := step(ctx)
		switch {
		case err == nil:
			logger.Info("phase complete", zap.Stringer("phase", phase))
			attempts = 0
			s.transition(phase.Next())
		case ctx.Err() != nil:
			return phase, ctx.Err()
		default:
			attempts++
			logger.Warn("phase failed",
				zap.Stringer("phase", phase), zap.Int("attempt", attempts), zap.Error(err))
			if s.OnError != nil {
				s.OnError(phase, attempts, err)
			}
			if s.MaxAttempts > 0 && attempts >= s.MaxAttempts {
				s.transition(Failed)
				return Failed, &PhaseError{Phase: phase, Attempts: attempts, Err: err}
			}
		}

		if s.Phase().Terminal() {
			return s.Phase(), nil
		}

		select {
		case <-ctx.Done():
			return s.Phase(), ctx.Err()
		case <-ticker.C:
		}
	}
}

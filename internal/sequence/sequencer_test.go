// ABOUTME: Tests for the phase sequencer
// ABOUTME: Covers ordering, retries, skipped phases and cancellation
package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct{ from, to Phase }

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "playing back", PlayingBack.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestPhaseNext(t *testing.T) {
	assert.Equal(t, Recording, Idle.Next())
	assert.Equal(t, Done, PlayingFile.Next())
	assert.Equal(t, Done, Done.Next())
	assert.Equal(t, Failed, Failed.Next())
}

func TestRunInOrder(t *testing.T) {
	var ran []Phase
	step := func(p Phase) StepFunc {
		return func(ctx context.Context) error {
			ran = append(ran, p)
			return nil
		}
	}

	var seen []transition
	s := &Sequencer{
		Steps: map[Phase]StepFunc{
			Recording:   step(Recording),
			PlayingBack: step(PlayingBack),
			PlayingFile: step(PlayingFile),
		},
		Interval: time.Millisecond,
		OnPhase:  func(from, to Phase) { seen = append(seen, transition{from, to}) },
	}

	final, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, final)
	assert.Equal(t, Done, s.Phase())
	assert.Equal(t, []Phase{Recording, PlayingBack, PlayingFile}, ran)
	assert.Equal(t, []transition{
		{Idle, Recording},
		{Recording, PlayingBack},
		{PlayingBack, PlayingFile},
		{PlayingFile, Done},
	}, seen)
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	calls := 0
	var failures []int
	s := &Sequencer{
		Steps: map[Phase]StepFunc{
			Recording: func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errors.New("card not ready")
				}
				return nil
			},
		},
		Interval:    time.Millisecond,
		MaxAttempts: 5,
		OnError: func(phase Phase, attempt int, err error) {
			assert.Equal(t, Recording, phase)
			failures = append(failures, attempt)
		},
	}

	final, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, final)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, failures)
}

func TestRunFailsAfterMaxAttempts(t *testing.T) {
	boom := errors.New("no such file")
	calls := 0
	played := false
	s := &Sequencer{
		Steps: map[Phase]StepFunc{
			PlayingBack: func(ctx context.Context) error {
				calls++
				return boom
			},
			PlayingFile: func(ctx context.Context) error {
				played = true
				return nil
			},
		},
		Interval:    time.Millisecond,
		MaxAttempts: 2,
	}

	final, err := s.Run(context.Background())
	assert.Equal(t, Failed, final)
	assert.ErrorIs(t, err, boom)

	var perr *PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PlayingBack, perr.Phase)
	assert.Equal(t, 2, perr.Attempts)
	assert.Equal(t, 2, calls)
	assert.False(t, played)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sequencer{
		Steps: map[Phase]StepFunc{
			Recording: func(ctx context.Context) error {
				cancel()
				return errors.New("interrupted")
			},
		},
		Interval: time.Millisecond,
	}

	final, err := s.Run(ctx)
	assert.Equal(t, Recording, final)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCancelledBetweenTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sequencer{
		Steps: map[Phase]StepFunc{
			Recording: func(ctx context.Context) error { return nil },
			PlayingBack: func(ctx context.Context) error {
				t.Error("step ran after cancellation")
				return nil
			},
		},
		Interval: time.Hour,
		OnPhase: func(from, to Phase) {
			if to == PlayingBack {
				cancel()
			}
		},
	}

	final, err := s.Run(ctx)
	assert.Equal(t, PlayingBack, final)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunNoSteps(t *testing.T) {
	s := &Sequencer{}
	final, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, final)
}

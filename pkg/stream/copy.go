// ABOUTME: Sample-aligned copy loop from a Source to a Sink
// ABOUTME: Truncates every write to whole samples and stops on target or exhaustion
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// DefaultBufferSize is the staging buffer size used when Config.BufferSize is zero.
const DefaultBufferSize = 512

// Config controls a single Copy call.
type Config struct {
	// SampleWidth is the number of bytes in one sample (one channel-frame unit).
	SampleWidth int

	// TargetSamples stops the copy once this many samples were written.
	// Zero copies until the source is exhausted unless Bounded is set.
	TargetSamples int64

	// Bounded makes TargetSamples a limit even when it is zero, in which
	// case Copy returns at once without touching src or dst.
	Bounded bool

	// BufferSize is the staging buffer size in bytes. It is raised to
	// SampleWidth if smaller.
	BufferSize int

	// CarryPartial keeps the trailing bytes of an incomplete sample and
	// completes them with the next read instead of dropping them.
	CarryPartial bool

	// ProgressEvery calls OnProgress each time the transferred count
	// crosses a multiple of this value.
	ProgressEvery int64
	OnProgress    func(transferred, target int64)

	Logger *zap.Logger
}

func (c Config) validate() error {
	if c.SampleWidth <= 0 {
		return fmt.Errorf("%w: sample width %d must be positive", ErrInvalidConfiguration, c.SampleWidth)
	}
	if c.TargetSamples < 0 {
		return fmt.Errorf("%w: target samples %d must not be negative", ErrInvalidConfiguration, c.TargetSamples)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer size %d must not be negative", ErrInvalidConfiguration, c.BufferSize)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("%w: progress interval %d must not be negative", ErrInvalidConfiguration, c.ProgressEvery)
	}
	return nil
}

// Copy moves whole samples from src to dst through one staging buffer and
// returns the number of samples written.
//
// The copy stops when cfg.TargetSamples is reached, when src reports
// exhaustion (or returns io.EOF), or when ctx is done. ctx is only checked
// between iterations; a blocked Read or Write is not interrupted.
// Bytes that do not complete a sample are dropped unless cfg.CarryPartial
// is set. Read and write failures abort the copy and are returned as
// *ReadError and *WriteError together with the partial count.
func Copy(ctx context.Context, dst Sink, src Source, cfg Config) (int64, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if dst == nil || src == nil {
		return 0, fmt.Errorf("%w: source and sink are required", ErrInvalidConfiguration)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	width := cfg.SampleWidth
	size := cfg.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	if size < width {
		size = width
	}
	buf := make([]byte, size)

	target := cfg.TargetSamples
	bounded := cfg.Bounded || target > 0
	var transferred int64
	var dropped int64
	carry := 0
	nextReport := cfg.ProgressEvery

	defer func() {
		logger.Debug("copy finished",
			zap.Int64("samples", transferred),
			zap.Int64("target", target),
			zap.Int64("droppedBytes", dropped))
	}()

	for {
		if bounded && transferred >= target {
			return transferred, nil
		}
		if src.Exhausted() {
			return transferred, nil
		}
		if err := ctx.Err(); err != nil {
			return transferred, err
		}

		limit := len(buf)
		if bounded {
			// Never read past the bytes still needed for the target. The
			// remainder is compared in samples so huge targets cannot overflow.
			if rem := target - transferred; rem <= int64(limit/width) {
				limit = int(rem) * width
			}
		}

		n, rerr := src.Read(buf[carry:limit])
		avail := carry + n

		if avail < width {
			// Not a full sample this iteration.
			if cfg.CarryPartial {
				carry = avail
			} else {
				dropped += int64(avail)
				carry = 0
			}
		} else {
			aligned := avail / width * width
			written, werr := dst.Write(buf[:aligned])
			if written > aligned {
				written = aligned
			}
			if werr == nil && written < aligned {
				werr = io.ErrShortWrite
			}
			transferred += int64(written / width)
			if werr != nil {
				logger.Warn("sink write failed", zap.Int64("samples", transferred), zap.Error(werr))
				return transferred, &WriteError{Samples: transferred, Err: werr}
			}

			rest := avail - aligned
			if cfg.CarryPartial && rest > 0 {
				copy(buf, buf[aligned:avail])
				carry = rest
			} else {
				dropped += int64(rest)
				carry = 0
			}

			if cfg.ProgressEvery > 0 && transferred >= nextReport {
				if cfg.OnProgress != nil {
					cfg.OnProgress(transferred, target)
				}
				nextReport = (transferred/cfg.ProgressEvery + 1) * cfg.ProgressEvery
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return transferred, nil
			}
			logger.Warn("source read failed", zap.Int64("samples", transferred), zap.Error(rerr))
			return transferred, &ReadError{Samples: transferred, Err: rerr}
		}
	}
}

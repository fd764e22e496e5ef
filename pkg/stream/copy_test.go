// ABOUTME: Tests for the sample-aligned copy loop
// ABOUTME: Covers alignment, termination, error taxonomy and partial-sample handling
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkSource hands back one scripted chunk per Read and is exhausted afterwards.
type chunkSource struct {
	chunks [][]byte
	reads  int
	err    error // returned once the chunks are used up, if set
}

func (s *chunkSource) Read(p []byte) (int, error) {
	s.reads++
	if len(s.chunks) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n := copy(p, s.chunks[0])
	if n < len(s.chunks[0]) {
		s.chunks[0] = s.chunks[0][n:]
	} else {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func (s *chunkSource) Exhausted() bool {
	return len(s.chunks) == 0 && s.err == nil
}

// endless produces an unbounded stream of bytes and counts what was consumed.
type endless struct {
	consumed int
	reads    int
}

func (e *endless) Read(p []byte) (int, error) {
	e.reads++
	for i := range p {
		p[i] = byte(e.consumed + i)
	}
	e.consumed += len(p)
	return len(p), nil
}

func (e *endless) Exhausted() bool { return false }

// recordingSink remembers the size of every write.
type recordingSink struct {
	bytes.Buffer
	writes []int
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.writes = append(s.writes, len(p))
	return s.Buffer.Write(p)
}

type failingSink struct {
	accept int // bytes accepted before failing
	err    error
}

func (s *failingSink) Write(p []byte) (int, error) {
	n := s.accept
	if n > len(p) {
		n = len(p)
	}
	s.accept -= n
	return n, s.err
}

func TestCopyUnboundedUntilExhausted(t *testing.T) {
	data := make([]byte, 2000)
	for i := range data {
		data[i] = byte(i)
	}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, NewReaderSource(bytes.NewReader(data)), Config{SampleWidth: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(500), n)
	assert.Equal(t, 2000, sink.Len())
	assert.Equal(t, data, sink.Bytes())
	for _, w := range sink.writes {
		assert.Zero(t, w%4, "write of %d bytes is not sample aligned", w)
	}
}

func TestCopyDropsTrailingPartialSample(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{make([]byte, 513)}}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, BufferSize: 1024})
	require.NoError(t, err)

	assert.Equal(t, int64(128), n)
	assert.Equal(t, []int{512}, sink.writes)
	assert.Equal(t, 512, sink.Len())
}

func TestCopyStopsAtTarget(t *testing.T) {
	src := &endless{}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: 100})
	require.NoError(t, err)

	assert.Equal(t, int64(100), n)
	assert.Equal(t, 400, sink.Len())
	assert.Equal(t, 400, src.consumed, "copier read past the target")
}

func TestCopyTargetSpanningSeveralBuffers(t *testing.T) {
	src := &endless{}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: 1000, BufferSize: 512})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), n)
	assert.Equal(t, 4000, sink.Len())
	assert.Equal(t, 4000, src.consumed)
	assert.Equal(t, 8, src.reads) // 7 full buffers + 416 bytes
}

func TestCopyInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero width", Config{SampleWidth: 0}},
		{"negative width", Config{SampleWidth: -2}},
		{"negative target", Config{SampleWidth: 4, TargetSamples: -1}},
		{"negative buffer", Config{SampleWidth: 4, BufferSize: -1}},
		{"negative progress", Config{SampleWidth: 4, ProgressEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &endless{}
			sink := &recordingSink{}

			n, err := Copy(context.Background(), sink, src, tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Zero(t, n)
			assert.Zero(t, src.reads, "no I/O expected")
			assert.Empty(t, sink.writes, "no I/O expected")
		})
	}
}

func TestCopyNilStreams(t *testing.T) {
	_, err := Copy(context.Background(), nil, &endless{}, Config{SampleWidth: 4})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Copy(context.Background(), &recordingSink{}, nil, Config{SampleWidth: 4})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCopyShortReadsAreSkipped(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{
		{1, 2, 3},
		{4, 5, 6, 7},
		{8},
		{9, 10, 11, 12, 13, 14},
	}}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(2), n)
	assert.Equal(t, []int{4, 4}, sink.writes)
	assert.Equal(t, []byte{4, 5, 6, 7, 9, 10, 11, 12}, sink.Bytes())
}

func TestCopyAlignedInputLosesNothing(t *testing.T) {
	for _, width := range []int{1, 2, 3, 4, 8} {
		data := make([]byte, width*257)
		for i := range data {
			data[i] = byte(i * 7)
		}
		var chunks [][]byte
		for off := 0; off < len(data); off += width * 13 {
			end := off + width*13
			if end > len(data) {
				end = len(data)
			}
			chunks = append(chunks, data[off:end])
		}
		sink := &recordingSink{}

		n, err := Copy(context.Background(), sink, &chunkSource{chunks: chunks}, Config{SampleWidth: width})
		require.NoError(t, err)
		assert.Equal(t, int64(257), n, "width %d", width)
		assert.Equal(t, data, sink.Bytes(), "width %d", width)
	}
}

func TestCopyEveryWriteIsAligned(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		width := 1 + rng.Intn(8)
		var chunks [][]byte
		for i := 0; i < 20; i++ {
			chunks = append(chunks, make([]byte, rng.Intn(700)))
		}
		sink := &recordingSink{}

		n, err := Copy(context.Background(), sink, &chunkSource{chunks: chunks}, Config{
			SampleWidth: width,
			BufferSize:  64 + rng.Intn(512),
		})
		require.NoError(t, err)

		for _, w := range sink.writes {
			require.Zero(t, w%width, "round %d: write of %d bytes with width %d", round, w, width)
		}
		assert.Equal(t, int64(sink.Len()/width), n)
	}
}

func TestCopyReadErrorReturnsPartialCount(t *testing.T) {
	boom := errors.New("bus fault")
	src := &chunkSource{chunks: [][]byte{make([]byte, 40)}, err: boom}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4})
	require.Error(t, err)

	assert.Equal(t, int64(10), n)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, boom)

	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, int64(10), rerr.Samples)
}

func TestCopyWriteErrorReturnsPartialCount(t *testing.T) {
	boom := errors.New("card removed")
	sink := &failingSink{accept: 10, err: boom}

	n, err := Copy(context.Background(), sink, &endless{}, Config{SampleWidth: 4})
	require.Error(t, err)

	// 10 accepted bytes hold two whole samples.
	assert.Equal(t, int64(2), n)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrRead)
}

func TestCopyShortWriteIsAnError(t *testing.T) {
	sink := &failingSink{accept: 8}

	n, err := Copy(context.Background(), sink, &endless{}, Config{SampleWidth: 4})
	assert.Equal(t, int64(2), n)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestCopyCarryPartialKeepsEveryByte(t *testing.T) {
	data := make([]byte, 4*300)
	for i := range data {
		data[i] = byte(i)
	}
	var chunks [][]byte
	for off, size := 0, 0; off < len(data); off += size {
		size = 1 + (off % 11)
		if off+size > len(data) {
			size = len(data) - off
		}
		chunks = append(chunks, data[off:off+size])
	}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, &chunkSource{chunks: chunks}, Config{SampleWidth: 4, CarryPartial: true})
	require.NoError(t, err)

	assert.Equal(t, int64(300), n)
	assert.Equal(t, data, sink.Bytes())
	for _, w := range sink.writes {
		assert.Zero(t, w%4)
	}
}

func TestCopyCarryPartialRespectsTarget(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{{1, 2, 3}, {4, 5, 6, 7, 8, 9, 10}, {11, 12, 13, 14, 15, 16}}}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: 3, CarryPartial: true})
	require.NoError(t, err)

	assert.Equal(t, int64(3), n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, sink.Bytes())
}

func TestCopyExhaustedSourceDoesNoIO(t *testing.T) {
	src := &chunkSource{}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, src.reads)
	assert.Empty(t, sink.writes)
}

func TestCopyContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sink := &recordingSink{}

	n, err := Copy(ctx, sink, &endless{}, Config{
		SampleWidth:   4,
		ProgressEvery: 128,
		OnProgress: func(transferred, target int64) {
			calls++
			if calls == 3 {
				cancel()
			}
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(3*128), n)
}

func TestCopyProgress(t *testing.T) {
	var reports []int64
	src := &endless{}

	n, err := Copy(context.Background(), io.Discard, src, Config{
		SampleWidth:   4,
		TargetSamples: 1000,
		BufferSize:    400,
		ProgressEvery: 250,
		OnProgress: func(transferred, target int64) {
			assert.Equal(t, int64(1000), target)
			reports = append(reports, transferred)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
	// 100 samples per read: crossings at 300, 500, 800, 1000.
	assert.Equal(t, []int64{300, 500, 800, 1000}, reports)
}

func TestCopyBufferSmallerThanSample(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 64)
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, NewReaderSource(bytes.NewReader(data)), Config{SampleWidth: 16, BufferSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, []int{16, 16, 16, 16}, sink.writes)
}

func TestCopyHugeTargetMakesProgress(t *testing.T) {
	boom := errors.New("sink full")
	for _, target := range []int64{math.MaxInt64, 1 << 62, math.MaxInt64 / 4} {
		src := &endless{}
		sink := &failingSink{accept: 1 << 20, err: boom}

		n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: target})
		require.ErrorIs(t, err, ErrWrite, "target %d", target)
		assert.Equal(t, int64(DefaultBufferSize/4), n, "target %d", target)
		assert.Equal(t, DefaultBufferSize, src.consumed, "target %d", target)
		assert.Equal(t, 1, src.reads, "target %d", target)
	}
}

func TestCopyHugeTargetWithCarry(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{{1, 2, 3}, {4, 5, 6, 7, 8}}}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: math.MaxInt64, CarryPartial: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, sink.Bytes())
}

func TestCopyBoundedZeroTargetDoesNoIO(t *testing.T) {
	src := &endless{}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, Bounded: true})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, src.reads)
	assert.Empty(t, sink.writes)
}

func TestCopyBoundedTarget(t *testing.T) {
	src := &endless{}
	sink := &recordingSink{}

	n, err := Copy(context.Background(), sink, src, Config{SampleWidth: 4, TargetSamples: 10, Bounded: true})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, 40, src.consumed)
}

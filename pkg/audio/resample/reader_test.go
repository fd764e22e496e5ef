// ABOUTME: Tests for the format-converting reader
// ABOUTME: Checks depth, channel and rate mapping over byte streams
package resample

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/stream"
)

func pcm16(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func pcm32(samples ...int32) []byte {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(s))
	}
	return b
}

func format(rate, channels, depth int) audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: rate, Channels: channels, BitDepth: depth}
}

func TestReaderIdentity(t *testing.T) {
	in := pcm16(1, -2, 300, -400, 5000, -6000)
	r, err := NewReader(iotest.OneByteReader(bytes.NewReader(in)), format(16000, 2, 16), format(16000, 2, 16))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReader32MonoTo16Stereo(t *testing.T) {
	r, err := NewReader(bytes.NewReader(pcm32(0x12345600, -0x10000000)), format(16000, 1, 32), format(16000, 2, 16))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pcm16(0x1234, 0x1234, -0x1000, -0x1000), out)
}

func TestReaderStereoToMono(t *testing.T) {
	r, err := NewReader(bytes.NewReader(pcm16(100, 300, -50, -150)), format(44100, 2, 16), format(44100, 1, 16))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pcm16(200, -100), out)
}

func TestReaderUpsample(t *testing.T) {
	r, err := NewReader(bytes.NewReader(pcm16(0, 100, 200)), format(8000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pcm16(0, 50, 100, 150), out)
}

func TestReaderFrameAligned(t *testing.T) {
	in := bytes.Repeat(pcm32(1<<8), 100)
	r, err := NewReader(bytes.NewReader(in), format(16000, 1, 32), format(16000, 2, 24))
	require.NoError(t, err)

	buf := make([]byte, 17)
	for {
		n, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.Zero(t, n%6, "read %d bytes", n)
	}
}

func TestReaderSourceError(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewReader(iotest.ErrReader(boom), format(16000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, boom)
}

func TestNewReaderRejects(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), format(16000, 1, 8), format(16000, 1, 16))
	assert.ErrorContains(t, err, "invalid source format")

	_, err = NewReader(bytes.NewReader(nil), format(16000, 1, 16), format(0, 1, 16))
	assert.ErrorContains(t, err, "invalid target format")

	_, err = NewReader(bytes.NewReader(nil), format(16000, 6, 16), format(16000, 2, 16))
	assert.ErrorContains(t, err, "unsupported channel conversion")
}

type drainingSource struct {
	*bytes.Reader
}

func (d drainingSource) Exhausted() bool { return d.Len() == 0 }

func TestReaderExhausted(t *testing.T) {
	src := drainingSource{bytes.NewReader(pcm16(1, 2, 3, 4))}
	r, err := NewReader(src, format(16000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)
	assert.False(t, r.Exhausted())

	buf := make([]byte, 2)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Source drained but converted bytes are still buffered
	assert.False(t, r.Exhausted())

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, r.Exhausted())
}

// failingSource returns its bytes together with err in a single Read and
// does not consult Exhausted on its own.
type failingSource struct {
	data []byte
	err  error
}

func (f *failingSource) Read(p []byte) (int, error) {
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, f.err
}

func (f *failingSource) Exhausted() bool { return false }

func TestReaderErrorWithDataIsNotExhaustion(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewReader(&failingSource{data: pcm16(1, 2, 3, 4), err: boom}, format(16000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.False(t, r.Exhausted())

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, boom)
}

func TestReaderErrorReachesCopy(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewReader(&failingSource{data: pcm16(1, 2, 3, 4), err: boom}, format(16000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)

	var sink bytes.Buffer
	n, err := stream.Copy(context.Background(), &sink, r, stream.Config{SampleWidth: 2})
	assert.ErrorIs(t, err, stream.ErrRead)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, pcm16(1, 2, 3, 4), sink.Bytes())
}

func TestReaderEOFIsExhaustion(t *testing.T) {
	r, err := NewReader(bytes.NewReader(pcm16(1, 2)), format(16000, 1, 16), format(16000, 1, 16))
	require.NoError(t, err)

	var sink bytes.Buffer
	n, err := stream.Copy(context.Background(), &sink, r, stream.Config{SampleWidth: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, r.Exhausted())
}

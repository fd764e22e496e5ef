// ABOUTME: WAV container writer over raw little-endian PCM bytes
// ABOUTME: Buffers partial samples between writes and finalises the header on Close
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// WAVWriter accepts raw PCM bytes in the configured format and writes them
// as a RIFF/WAVE file. Bytes that do not complete a sample are held until
// the next Write. Close must be called to patch the header sizes.
type WAVWriter struct {
	enc     *wav.Encoder
	format  audio.Format
	pending []byte
	buf     *goaudio.IntBuffer
	closed  bool
}

// NewWAVWriter starts a WAV file on ws. ws is not closed by Close.
func NewWAVWriter(ws io.WriteSeeker, format audio.Format) (*WAVWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wav format: %w", err)
	}

	return &WAVWriter{
		enc:    wav.NewEncoder(ws, format.SampleRate, format.BitDepth, format.Channels, 1),
		format: format,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// Write encodes every whole sample in p and reports all of p as consumed.
func (w *WAVWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("wav writer is closed")
	}

	width := w.format.BytesPerSample()
	data := p
	if len(w.pending) > 0 {
		data = append(w.pending, p...)
		w.pending = nil
	}

	whole := len(data) / width * width
	if rest := data[whole:]; len(rest) > 0 {
		w.pending = append([]byte(nil), rest...)
	}
	if whole == 0 {
		return len(p), nil
	}

	ints := w.buf.Data[:0]
	for off := 0; off < whole; off += width {
		ints = append(ints, int(audio.Sample(data[off:], w.format.BitDepth)))
	}
	w.buf.Data = ints

	if err := w.enc.Write(w.buf); err != nil {
		return 0, fmt.Errorf("failed to write wav samples: %w", err)
	}
	return len(p), nil
}

// Close writes the final header. Pending partial bytes are discarded.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.pending = nil
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise wav: %w", err)
	}
	return nil
}

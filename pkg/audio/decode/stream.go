// ABOUTME: File stream decoding to little-endian PCM bytes
// ABOUTME: Picks a decoder by file extension and exposes it as an io.Reader
package decode

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// ErrUnsupportedFormat is returned for file extensions without a decoder
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder turns one encoded packet into interleaved int32 samples in the
// 24-bit internal range
type Decoder interface {
	Decode(data []byte) ([]int32, error)
	Close() error
}

// Stream is a decoded audio file read as interleaved little-endian PCM bytes
type Stream interface {
	io.Reader

	// Format describes the PCM produced by Read
	Format() audio.Format

	// Close releases decoder resources and closes the underlying reader
	// when it is an io.Closer
	Close() error
}

// Extensions lists the file extensions OpenStream understands
var Extensions = []string{".pcm", ".raw", ".wav", ".mp3", ".flac", ".opus", ".ogg"}

// OpenStream creates a Stream for r based on the extension of name.
// raw describes the data for headerless .pcm and .raw files.
func OpenStream(r io.ReadSeeker, name string, raw audio.Format) (Stream, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".pcm", ".raw":
		return NewRawStream(r, raw)
	case ".wav":
		return NewWAVStream(r)
	case ".mp3":
		return NewMP3Stream(r)
	case ".flac":
		return NewFLACStream(r)
	case ".opus", ".ogg":
		return NewOpusStream(r)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions, ", "))
	}
}

// closeReader closes r if it is an io.Closer
func closeReader(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RawStream passes headerless PCM through unchanged
type RawStream struct {
	r      io.Reader
	format audio.Format
}

// NewRawStream wraps r as PCM in the given format
func NewRawStream(r io.Reader, format audio.Format) (*RawStream, error) {
	if format.Codec == "" {
		format.Codec = "pcm"
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid raw PCM format: %w", err)
	}
	return &RawStream{r: r, format: format}, nil
}

func (s *RawStream) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *RawStream) Format() audio.Format       { return s.format }
func (s *RawStream) Close() error               { return closeReader(s.r) }

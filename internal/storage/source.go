// ABOUTME: File-backed byte source for the stream copier
// ABOUTME: Reports exhaustion when no bytes remain to be read
package storage

import (
	"errors"
	"io"

	"github.com/spf13/afero"
)

// FileSource reads a file and reports exhausted once the read position
// reaches the size seen at open, or the file returned io.EOF.
type FileSource struct {
	file afero.File
	size int64
	pos  int64
	eof  bool
}

// Read reads from the file
func (s *FileSource) Read(p []byte) (int, error) {
	n, err := s.file.Read(p)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return n, err
}

// Seek repositions the source and clears the end-of-file state
func (s *FileSource) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.file.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	s.pos = pos
	s.eof = false
	return pos, nil
}

// Exhausted reports whether no bytes are available
func (s *FileSource) Exhausted() bool {
	return s.eof || s.pos >= s.size
}

// Available returns the bytes left before the end of the file
func (s *FileSource) Available() int64 {
	if s.eof || s.pos >= s.size {
		return 0
	}
	return s.size - s.pos
}

// Size returns the file size at open
func (s *FileSource) Size() int64 {
	return s.size
}

// Name returns the file name
func (s *FileSource) Name() string {
	return s.file.Name()
}

// Close closes the file
func (s *FileSource) Close() error {
	return s.file.Close()
}

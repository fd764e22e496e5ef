// ABOUTME: I2S bus interface and in-memory loopback bus
// ABOUTME: Loopback makes written frames readable for hardware-less runs
package i2s

import (
	"errors"
	"io"
	"sync"
)

// ErrInvalidSampleFrequency is returned for a zero sample frequency
var ErrInvalidSampleFrequency = errors.New("i2s: invalid sample frequency")

// Bus is a stereo I2S peripheral. Words are interleaved left, right.
type Bus interface {
	SetSampleFrequency(freq uint32) error
	ReadStereo(b []uint32) (int, error)
	WriteStereo(b []uint32) (int, error)
}

// Loopback is a Bus whose receive line is wired to its transmit line
type Loopback struct {
	mu     sync.Mutex
	cond   *sync.Cond
	words  []uint32
	freq   uint32
	closed bool
}

// NewLoopback creates an empty loopback bus
func NewLoopback() *Loopback {
	l := &Loopback{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// SetSampleFrequency records the bus frequency
func (l *Loopback) SetSampleFrequency(freq uint32) error {
	if freq == 0 {
		return ErrInvalidSampleFrequency
	}
	l.mu.Lock()
	l.freq = freq
	l.mu.Unlock()
	return nil
}

// SampleFrequency returns the last frequency set
func (l *Loopback) SampleFrequency() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.freq
}

// ReadStereo blocks until words are queued, then returns as many as fit.
// After Close it drains the queue and then returns io.EOF.
func (l *Loopback) ReadStereo(b []uint32) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.words) == 0 && !l.closed {
		l.cond.Wait()
	}
	if len(l.words) == 0 {
		return 0, io.EOF
	}
	n := copy(b, l.words)
	l.words = l.words[n:]
	return n, nil
}

// WriteStereo queues words for ReadStereo
func (l *Loopback) WriteStereo(b []uint32) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, io.ErrClosedPipe
	}
	l.words = append(l.words, b...)
	l.cond.Broadcast()
	return len(b), nil
}

// Close stops accepting writes and wakes blocked readers
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
	return nil
}

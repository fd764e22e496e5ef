// ABOUTME: Tests for the WAV container writer
// ABOUTME: Round-trips raw PCM bytes through go-audio's decoder
package encode

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

func TestWAVWriter_RoundTrip(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 32}
	path := filepath.Join(t.TempDir(), "rec.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w, err := NewWAVWriter(f, format)
	if err != nil {
		t.Fatalf("NewWAVWriter() failed: %v", err)
	}

	want := []int32{1, -1, 1 << 20, -(1 << 30), 42}
	raw := make([]byte, len(want)*4)
	for i, v := range want {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}

	// Split mid-sample to exercise the pending buffer
	if n, err := w.Write(raw[:6]); err != nil || n != 6 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if n, err := w.Write(raw[6:]); err != nil || n != len(raw)-6 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	f.Close()

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() failed: %v", err)
	}

	if int(dec.SampleRate) != 16000 || int(dec.NumChans) != 1 || int(dec.BitDepth) != 32 {
		t.Errorf("header = %dHz %dch %d-bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i, v := range want {
		if int32(buf.Data[i]) != v {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestWAVWriter_InvalidFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	_, err = NewWAVWriter(f, audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 8})
	if err == nil {
		t.Fatal("NewWAVWriter() expected error for 8-bit, got nil")
	}
}

func TestWAVWriter_WriteAfterClose(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "closed.wav"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w, err := NewWAVWriter(f, audio.Format{SampleRate: 8000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewWAVWriter() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := w.Write([]byte{0, 0}); err == nil {
		t.Error("Write() after Close expected error")
	}
}

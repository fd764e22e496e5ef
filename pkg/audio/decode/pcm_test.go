// ABOUTME: Tests for the PCM packet decoder
// ABOUTME: Checks 16, 24 and 32-bit unpacking into the 24-bit internal range
package decode

import (
	"testing"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

func pcmFormat(bitDepth int) audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: bitDepth}
}

func TestPCMDecode(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		input    []byte
		want     []int32
	}{
		{"16-bit scales up", 16, []byte{0x00, 0x01, 0x02, 0x03}, []int32{256 << 8, 770 << 8}},
		{"16-bit negative", 16, []byte{0xFF, 0xFF}, []int32{-1 << 8}},
		{"24-bit is native", 24, []byte{0x01, 0x02, 0x03, 0xFF, 0xFF, 0xFF}, []int32{0x030201, -1}},
		{"32-bit scales down", 32, []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}, []int32{1, audio.Min24Bit}},
		{"trailing byte ignored", 16, []byte{0x00, 0x01, 0x7F}, []int32{256 << 8}},
		{"empty", 24, nil, []int32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewPCM(pcmFormat(tt.bitDepth))
			if err != nil {
				t.Fatalf("NewPCM() error = %v", err)
			}
			defer dec.Close()

			got, err := dec.Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Decode() returned %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewPCMRejects(t *testing.T) {
	tests := []struct {
		name   string
		format audio.Format
		errMsg string
	}{
		{"opus codec", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
			"invalid codec for PCM decoder: opus"},
		{"8-bit", pcmFormat(8), "unsupported bit depth: 8 (supported: 16, 24, 32)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewPCM(tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if dec != nil {
				t.Error("expected nil decoder on error")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
			}
		})
	}
}

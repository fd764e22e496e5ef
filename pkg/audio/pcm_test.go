// ABOUTME: Tests for packed PCM sample access
// ABOUTME: Verifies little-endian layouts and depth scaling
package audio

import (
	"bytes"
	"testing"
)

func TestPutSample(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		bitDepth int
		expected []byte
	}{
		{"16-bit positive", 0x0102, 16, []byte{0x02, 0x01}},
		{"16-bit negative", -2, 16, []byte{0xFE, 0xFF}},
		{"24-bit", 0x123456, 24, []byte{0x56, 0x34, 0x12}},
		{"32-bit", 0x01020304, 32, []byte{0x04, 0x03, 0x02, 0x01}},
		{"32-bit negative", -1, 32, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, tt.bitDepth/8)
			PutSample(b, tt.sample, tt.bitDepth)
			if !bytes.Equal(b, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, b)
			}
			if got := Sample(b, tt.bitDepth); got != tt.sample {
				t.Errorf("read back %d, expected %d", got, tt.sample)
			}
		})
	}
}

func TestInternalScaling(t *testing.T) {
	tests := []struct {
		name     string
		native   int32
		bitDepth int
		internal int32
	}{
		{"16-bit", 1000, 16, 1000 << 8},
		{"24-bit", 1000, 24, 1000},
		{"32-bit", 1000 << 8, 32, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToInternal(tt.native, tt.bitDepth); got != tt.internal {
				t.Errorf("ToInternal: expected %d, got %d", tt.internal, got)
			}
			if got := FromInternal(tt.internal, tt.bitDepth); got != tt.native {
				t.Errorf("FromInternal: expected %d, got %d", tt.native, got)
			}
		})
	}
}

// ABOUTME: Packed little-endian PCM sample access
// ABOUTME: Reads and writes native-depth samples in 16, 24 and 32-bit layouts
package audio

import "encoding/binary"

// PutSample writes a native-depth sample (not 24-bit scaled) into b as little-endian PCM.
// b must hold at least bitDepth/8 bytes.
func PutSample(b []byte, sample int32, bitDepth int) {
	switch bitDepth {
	case 16:
		binary.LittleEndian.PutUint16(b, uint16(int16(sample)))
	case 24:
		p := SampleTo24Bit(sample)
		copy(b, p[:])
	case 32:
		binary.LittleEndian.PutUint32(b, uint32(sample))
	}
}

// Sample reads a native-depth little-endian PCM sample from b.
func Sample(b []byte, bitDepth int) int32 {
	switch bitDepth {
	case 16:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		return SampleFrom24Bit([3]byte{b[0], b[1], b[2]})
	case 32:
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// ToInternal scales a native-depth sample to the 24-bit internal range
func ToInternal(sample int32, bitDepth int) int32 {
	switch bitDepth {
	case 16:
		return SampleFromInt16(int16(sample))
	case 32:
		return SampleFromInt32(sample)
	}
	return sample
}

// FromInternal scales a 24-bit internal sample to the given native depth
func FromInternal(sample int32, bitDepth int) int32 {
	switch bitDepth {
	case 16:
		return int32(SampleToInt16(sample))
	case 32:
		return SampleToInt32(sample)
	}
	return sample
}

// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides fundamental audio types and utilities.
//
// This package defines core types used throughout duplex-go:
//   - Format: Describes audio stream format (codec, sample rate, channels, bit depth)
//     and the byte sizes derived from it (sample, frame, data rate)
//   - Buffer: Represents decoded PCM audio with timestamp information
//
// Samples are carried as int32 in 24-bit range. Conversions are provided for:
//   - 16-bit ↔ 24-bit
//   - 32-bit ↔ 24-bit (I2S microphones)
//   - int32 ↔ packed 24-bit bytes
//
// Example:
//
//	format := audio.DefaultCaptureFormat // 16kHz mono 32-bit
//	width := format.FrameSize()          // 4 bytes per sample
package audio

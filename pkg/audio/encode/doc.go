// ABOUTME: Audio encoder package for encoding PCM to various formats
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus and WAV files
// Package encode provides audio encoders for various codecs.
//
// Supports: PCM (16, 24 and 32-bit), Opus, and a WAV file writer
//
// Sample encoders accept int32 samples in 24-bit range and encode
// to wire format. WAVWriter instead wraps raw PCM bytes so it can be
// used directly as a copy sink.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	data, err := encoder.Encode(samples)
package encode

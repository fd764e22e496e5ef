// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides packet decoders and file streams for PCM, WAV, MP3, FLAC, Opus
// Package decode provides audio decoders for various codecs.
//
// Two shapes are offered:
//   - Decoder turns encoded packets into int32 samples in 24-bit range
//     (PCM 16/24/32-bit, Opus).
//   - Stream reads a whole file as interleaved little-endian PCM bytes in the
//     file's native format (raw PCM, WAV, MP3, FLAC, Ogg/Opus), ready to be
//     copied to an output with the stream package.
//
// Example:
//
//	s, err := decode.OpenStream(file, "/music/a1.mp3", audio.Format{})
//	width := s.Format().FrameSize()
package decode

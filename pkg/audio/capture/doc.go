// ABOUTME: Audio capture package providing live PCM sources
// ABOUTME: Test tone generator and PortAudio microphone input
// Package capture provides live audio inputs as byte streams.
//
// Every source is a stream.Source that never reports exhaustion; callers
// bound a recording with a sample target instead.
//
// Example:
//
//	src, err := capture.Open("tone", audio.DefaultCaptureFormat)
//	defer src.Close()
//	n, err := stream.Copy(ctx, file, src, cfg)
package capture

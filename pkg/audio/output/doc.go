// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with speaker, monitor and discard backends
// Package output provides audio playback sinks.
//
// Every Output is an io.Writer of PCM bytes in the format passed to Open,
// so it can be the sink of stream.Copy. Backends: oto (speaker), PortAudio
// (build with -tags portaudio), WebSocket (remote monitor) and Discard.
//
// Example:
//
//	out, err := output.New(output.KindOto, output.Config{Volume: 55})
//	err = out.Open(format)
//	n, err := out.Write(pcm)
package output

// ABOUTME: Sample-aligned stream copying between audio sources and sinks
// ABOUTME: Package documentation and usage example
// Package stream copies raw PCM bytes from a Source to a Sink without ever
// splitting a sample across a write.
//
// A Source is any io.Reader that can also report when it has no more data
// (a file on the storage volume, a decoded music file). Live captures never
// report exhaustion and are bounded with a target sample count instead.
//
// Example:
//
//	src := stream.NewReaderSource(file)
//	n, err := stream.Copy(ctx, speaker, src, stream.Config{
//	    SampleWidth:   format.FrameSize(),
//	    TargetSamples: 16000 * 10,
//	})
package stream

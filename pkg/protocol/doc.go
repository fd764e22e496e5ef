// ABOUTME: Monitor stream wire protocol package
// ABOUTME: Defines control messages and a WebSocket connection wrapper
// Package protocol implements the wire format used to stream audio to a
// remote monitor.
//
// A stream is a stream/start JSON message, any number of binary audio
// chunks, and a stream/end JSON message.
//
// Example:
//
//	conn, err := protocol.Dial(ctx, "ws://localhost:8927/stream", logger)
//	err = conn.Send(protocol.TypeStreamStart, protocol.StreamStart{...})
//	err = conn.SendAudio(protocol.AudioChunk{Data: pcm})
package protocol

// ABOUTME: Monitor stream message type definitions
// ABOUTME: JSON control messages and the binary audio chunk layout
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Message types
const (
	TypeStreamStart = "stream/start"
	TypeStreamEnd   = "stream/end"
)

const (
	// BinaryMessageHeaderSize is the size of binary message header (type byte + timestamp)
	BinaryMessageHeaderSize = 1 + 8

	// AudioChunkMessageType is the binary message type ID for audio chunks
	AudioChunkMessageType = 4
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StreamStart announces a stream and its format
type StreamStart struct {
	SessionID   string `json:"session_id"`
	Codec       string `json:"codec"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	BitDepth    int    `json:"bit_depth"`
	CodecHeader string `json:"codec_header,omitempty"` // Base64-encoded
}

// StreamEnd closes a stream
type StreamEnd struct {
	SessionID string `json:"session_id"`
	Samples   int64  `json:"samples"` // Frames sent during the session
}

// AudioChunk is one binary audio message
type AudioChunk struct {
	Timestamp int64  // Microseconds since stream start
	Data      []byte // Encoded audio
}

// MarshalBinary encodes the chunk with its header
func (c AudioChunk) MarshalBinary() ([]byte, error) {
	out := make([]byte, BinaryMessageHeaderSize+len(c.Data))
	out[0] = AudioChunkMessageType
	binary.BigEndian.PutUint64(out[1:BinaryMessageHeaderSize], uint64(c.Timestamp))
	copy(out[BinaryMessageHeaderSize:], c.Data)
	return out, nil
}

// UnmarshalBinary decodes a binary audio message
func (c *AudioChunk) UnmarshalBinary(data []byte) error {
	if len(data) < BinaryMessageHeaderSize {
		return fmt.Errorf("invalid binary message: too short")
	}
	if data[0] != AudioChunkMessageType {
		return fmt.Errorf("unknown binary message type: %d", data[0])
	}
	c.Timestamp = int64(binary.BigEndian.Uint64(data[1:BinaryMessageHeaderSize]))
	c.Data = data[BinaryMessageHeaderSize:]
	return nil
}

// ParseMessage decodes a JSON control message into *StreamStart or *StreamEnd
func ParseMessage(data []byte) (interface{}, error) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	var payload interface{}
	switch envelope.Type {
	case TypeStreamStart:
		payload = &StreamStart{}
	case TypeStreamEnd:
		payload = &StreamEnd{}
	default:
		return nil, fmt.Errorf("unknown message type: %q", envelope.Type)
	}

	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", envelope.Type, err)
	}
	return payload, nil
}

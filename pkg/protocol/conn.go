// ABOUTME: WebSocket connection carrying monitor stream messages
// ABOUTME: Sends and receives control messages and audio chunks
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeTimeout = time.Second

// Conn wraps a WebSocket with typed send and receive
type Conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	logger *zap.Logger
	closed bool
}

// Dial connects to a monitor at rawURL (ws:// or wss://)
func Dial(ctx context.Context, rawURL string, logger *zap.Logger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connecting to monitor", zap.String("url", rawURL))

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewConn(ws, logger), nil
}

// NewConn wraps an established WebSocket, such as one from an Upgrader
func NewConn(ws *websocket.Conn, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{ws: ws, logger: logger}
}

// Send writes a JSON control message
func (c *Conn) Send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("not connected")
	}
	if err := c.ws.WriteJSON(Message{Type: msgType, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}
	return nil
}

// SendAudio writes a binary audio message
func (c *Conn) SendAudio(chunk AudioChunk) error {
	data, _ := chunk.MarshalBinary()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("not connected")
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// Receive blocks for the next message and returns *StreamStart, *StreamEnd
// or AudioChunk. Messages that fail to parse are logged and skipped.
func (c *Conn) Receive() (interface{}, error) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}

		switch messageType {
		case websocket.BinaryMessage:
			var chunk AudioChunk
			if err := chunk.UnmarshalBinary(data); err != nil {
				c.logger.Warn("dropping binary message", zap.Error(err))
				continue
			}
			return chunk, nil
		case websocket.TextMessage:
			msg, err := ParseMessage(data)
			if err != nil {
				c.logger.Warn("dropping control message", zap.Error(err))
				continue
			}
			return msg, nil
		default:
			c.logger.Warn("unknown websocket message type", zap.Int("type", messageType))
		}
	}
}

// Close sends a close frame and closes the socket
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout)); err != nil {
		c.logger.Debug("close frame not sent", zap.Error(err))
	}
	return c.ws.Close()
}

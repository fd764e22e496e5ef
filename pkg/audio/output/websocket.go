// ABOUTME: WebSocket output streaming audio to a remote monitor
// ABOUTME: Sends raw PCM or Opus packets framed by stream/start and stream/end
package output

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/encode"
	"github.com/Sendspin/duplex-go/pkg/protocol"
)

const dialTimeout = 5 * time.Second

// WebSocket sends audio to a monitor over a WebSocket connection
type WebSocket struct {
	url    string
	codec  string
	logger *zap.Logger

	conn    *protocol.Conn
	format  audio.Format
	session string
	frames  int64

	// pcm mode
	pending []byte

	// opus mode
	decoder    sampleDecoder
	encoder    encode.Encoder
	opusBuf    []int32
	opusFrame  int
	opusFrames int64
}

// NewWebSocket creates a websocket output. codec is "pcm" (default) or "opus".
func NewWebSocket(url, codec string, logger *zap.Logger) (*WebSocket, error) {
	if codec == "" {
		codec = "pcm"
	}
	if codec != "pcm" && codec != "opus" {
		return nil, fmt.Errorf("unsupported websocket codec: %q", codec)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{url: url, codec: codec, logger: logger}, nil
}

// SessionID returns the id announced in stream/start
func (w *WebSocket) SessionID() string {
	return w.session
}

// Open dials the monitor and announces the stream
func (w *WebSocket) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	start := protocol.StreamStart{
		SessionID:  uuid.NewString(),
		Codec:      w.codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
	}

	if w.codec == "opus" {
		opusFormat := audio.Format{Codec: "opus", SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
		enc, err := encode.NewOpus(opusFormat)
		if err != nil {
			return err
		}
		w.encoder = enc
		w.decoder = sampleDecoder{bitDepth: format.BitDepth}
		w.opusFrame = encode.OpusFrameSamples(opusFormat)
		w.opusBuf = w.opusBuf[:0]
		start.BitDepth = 16
		start.CodecHeader = base64.StdEncoding.EncodeToString(opusHead(format))
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := protocol.Dial(ctx, w.url, w.logger)
	if err != nil {
		w.closeEncoder()
		return err
	}
	if err := conn.Send(protocol.TypeStreamStart, start); err != nil {
		conn.Close()
		w.closeEncoder()
		return err
	}

	w.conn = conn
	w.format = format
	w.session = start.SessionID
	w.frames = 0
	w.opusFrames = 0
	w.pending = nil

	w.logger.Info("monitor stream started",
		zap.String("session", w.session), zap.String("codec", w.codec), zap.Stringer("format", format))
	return nil
}

// Write sends whole frames of p; a trailing partial frame is held back
func (w *WebSocket) Write(p []byte) (int, error) {
	if w.conn == nil {
		return 0, fmt.Errorf("output not initialized")
	}
	if w.codec == "opus" {
		return w.writeOpus(p)
	}

	data := p
	if len(w.pending) > 0 {
		data = append(w.pending, p...)
		w.pending = nil
	}

	frameSize := w.format.FrameSize()
	whole := len(data) / frameSize * frameSize
	if rest := data[whole:]; len(rest) > 0 {
		w.pending = append([]byte(nil), rest...)
	}
	if whole == 0 {
		return len(p), nil
	}

	chunk := protocol.AudioChunk{Timestamp: w.timestamp(w.frames), Data: data[:whole]}
	if err := w.conn.SendAudio(chunk); err != nil {
		return 0, err
	}
	w.frames += int64(whole / frameSize)
	return len(p), nil
}

func (w *WebSocket) writeOpus(p []byte) (int, error) {
	w.opusBuf = append(w.opusBuf, w.decoder.decode(p)...)
	for len(w.opusBuf) >= w.opusFrame {
		if err := w.sendOpusFrame(w.opusBuf[:w.opusFrame], w.opusFrame); err != nil {
			return 0, err
		}
		w.opusBuf = w.opusBuf[w.opusFrame:]
	}
	return len(p), nil
}

// sendOpusFrame encodes one full frame of which the first valid samples are audio
func (w *WebSocket) sendOpusFrame(samples []int32, valid int) error {
	packet, err := w.encoder.Encode(samples)
	if err != nil {
		return err
	}
	chunk := protocol.AudioChunk{Timestamp: w.timestamp(w.opusFrames), Data: packet}
	if err := w.conn.SendAudio(chunk); err != nil {
		return err
	}
	w.opusFrames += int64(len(samples) / w.format.Channels)
	w.frames += int64(valid / w.format.Channels)
	return nil
}

func (w *WebSocket) timestamp(frames int64) int64 {
	return frames * int64(time.Second/time.Microsecond) / int64(w.format.SampleRate)
}

// Close flushes buffered audio, sends stream/end and disconnects
func (w *WebSocket) Close() error {
	if w.conn == nil {
		return nil
	}
	defer w.closeEncoder()

	var flushErr error
	if w.codec == "opus" && len(w.opusBuf) > 0 {
		// Pad the last packet with silence
		last := make([]int32, w.opusFrame)
		copy(last, w.opusBuf)
		flushErr = w.sendOpusFrame(last, len(w.opusBuf))
		w.opusBuf = w.opusBuf[:0]
	}

	endErr := w.conn.Send(protocol.TypeStreamEnd, protocol.StreamEnd{SessionID: w.session, Samples: w.frames})
	closeErr := w.conn.Close()
	w.conn = nil

	w.logger.Info("monitor stream ended", zap.String("session", w.session), zap.Int64("frames", w.frames))

	switch {
	case flushErr != nil:
		return flushErr
	case endErr != nil:
		return endErr
	default:
		return closeErr
	}
}

func (w *WebSocket) closeEncoder() {
	if w.encoder != nil {
		w.encoder.Close()
		w.encoder = nil
	}
}

// opusHead builds the RFC 7845 identification header for the stream
func opusHead(format audio.Format) []byte {
	head := []byte("OpusHead")
	head = append(head, 1, byte(format.Channels), 0, 0)
	rate := uint32(format.SampleRate)
	head = append(head, byte(rate), byte(rate>>8), byte(rate>>16), byte(rate>>24))
	head = append(head, 0, 0, 0)
	return head
}

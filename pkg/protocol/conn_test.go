// ABOUTME: Tests for the WebSocket connection wrapper
// ABOUTME: Exchanges control and audio messages with an httptest server
package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestConnRoundTrip(t *testing.T) {
	received := make(chan interface{}, 4)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConn(ws, nil)
		defer conn.Close()
		for {
			msg, err := conn.Receive()
			if err != nil {
				close(received)
				return
			}
			received <- msg
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}

	if err := conn.Send(TypeStreamStart, StreamStart{SessionID: "s1", Codec: "pcm"}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if err := conn.SendAudio(AudioChunk{Timestamp: 20000, Data: []byte{9, 8}}); err != nil {
		t.Fatalf("SendAudio() failed: %v", err)
	}
	if err := conn.Send(TypeStreamEnd, StreamEnd{SessionID: "s1", Samples: 1}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	var got []interface{}
	for msg := range received {
		got = append(got, msg)
	}

	if len(got) != 3 {
		t.Fatalf("received %d messages, want 3", len(got))
	}
	if start, ok := got[0].(*StreamStart); !ok || start.SessionID != "s1" {
		t.Errorf("first message = %#v", got[0])
	}
	if chunk, ok := got[1].(AudioChunk); !ok || chunk.Timestamp != 20000 || len(chunk.Data) != 2 {
		t.Errorf("second message = %#v", got[1])
	}
	if end, ok := got[2].(*StreamEnd); !ok || end.Samples != 1 {
		t.Errorf("third message = %#v", got[2])
	}

	if err := conn.Send(TypeStreamEnd, StreamEnd{}); err == nil {
		t.Error("Send() after Close expected error")
	}
}

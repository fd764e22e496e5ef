// ABOUTME: WebSocket monitor that receives remote output streams
// ABOUTME: Records each stream/start to stream/end session as a WAV file on the volume
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/internal/storage"
	"github.com/Sendspin/duplex-go/pkg/protocol"
)

// Path is the HTTP path the WebSocket handler is mounted on
const Path = "/monitor"

const shutdownTimeout = 5 * time.Second

// Config holds monitor settings
type Config struct {
	// Addr is the listen address, e.g. ":8927"
	Addr string

	// Dir is the volume directory session files are written to
	Dir string

	Logger *zap.Logger
}

// Session describes a finished recording
type Session struct {
	ID       string
	Path     string
	Codec    string
	Frames   int64
	Expected int64
	Complete bool
}

// Server accepts WebSocket outputs and records what they send
type Server struct {
	config   Config
	volume   *storage.Volume
	logger   *zap.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	wg       sync.WaitGroup
	mu       sync.RWMutex
	sessions []Session
	conns    map[*protocol.Conn]struct{}
}

// New creates a monitor writing into volume
func New(volume *storage.Volume, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Dir == "" {
		config.Dir = "/monitor"
	}

	s := &Server{
		config: config,
		volume: volume,
		logger: logger,
		mux:    http.NewServeMux(),
		conns:  make(map[*protocol.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" {
					logger.Warn("accepting websocket from origin", zap.String("origin", origin))
				}
				return true
			},
		},
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the monitor endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on config.Addr until ctx is done, then shuts down and waits
// for open sessions to be finalised
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	s.logger.Info("monitor listening", zap.String("addr", ln.Addr().String()), zap.String("path", Path))

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("monitor shutting down")
	case err := <-errChan:
		serverErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("monitor shutdown error", zap.Error(err))
	}
	s.closeConns()
	s.wg.Wait()

	if serverErr != nil {
		return fmt.Errorf("monitor server failed: %w", serverErr)
	}
	return nil
}

// Sessions returns the finished recordings ordered by path
func (s *Server) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Session(nil), s.sessions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	logger := s.logger.With(zap.String("remote", r.RemoteAddr))
	logger.Info("output connected")

	conn := protocol.NewConn(ws, logger)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	s.handleConnection(conn, logger)
}

// closeConns disconnects hijacked websockets, which http.Server.Shutdown
// leaves open
func (s *Server) closeConns() {
	s.mu.RLock()
	conns := make([]*protocol.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}

// handleConnection records sessions until the connection drops. A session
// still open at that point is finalised as incomplete.
func (s *Server) handleConnection(conn *protocol.Conn, logger *zap.Logger) {
	defer conn.Close()

	var rec *recorder
	finish := func(expected int64, complete bool) {
		if rec == nil {
			return
		}
		session, err := rec.finish(expected, complete)
		if err != nil {
			logger.Warn("failed to finalise session", zap.String("session", rec.id), zap.Error(err))
		}
		s.mu.Lock()
		s.sessions = append(s.sessions, session)
		s.mu.Unlock()
		logger.Info("session recorded",
			zap.String("session", session.ID),
			zap.String("path", session.Path),
			zap.Int64("frames", session.Frames),
			zap.Bool("complete", session.Complete))
		rec = nil
	}

	for {
		msg, err := conn.Receive()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("connection lost", zap.Error(err))
			}
			finish(0, false)
			return
		}

		switch m := msg.(type) {
		case *protocol.StreamStart:
			finish(0, false)
			id := sessionID(m.SessionID)
			rec, err = newRecorder(s.volume, path.Join(s.config.Dir, id+".wav"), id, m)
			if err != nil {
				logger.Warn("rejecting stream", zap.String("session", id), zap.Error(err))
				continue
			}
			logger.Info("stream started",
				zap.String("session", id),
				zap.String("codec", m.Codec),
				zap.Int("sample_rate", m.SampleRate),
				zap.Int("channels", m.Channels))
		case protocol.AudioChunk:
			if rec == nil {
				logger.Debug("audio outside a session")
				continue
			}
			if err := rec.write(m.Data); err != nil {
				logger.Warn("dropping chunk", zap.String("session", rec.id), zap.Error(err))
			}
		case *protocol.StreamEnd:
			if rec == nil {
				continue
			}
			if m.Samples > rec.frames {
				logger.Warn("frames missing",
					zap.String("session", rec.id),
					zap.Int64("reported", m.Samples),
					zap.Int64("received", rec.frames))
			}
			finish(m.Samples, true)
		}
	}
}

// sessionID returns id when it is a valid UUID and a fresh one otherwise,
// so untrusted input never becomes a file name
func sessionID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewString()
}

package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/logging"
)

// Handler receives inbound frames from connected clients. Utterances carry
// finalized recognized text; audio segments still need server-side
// recognition.
type Handler interface {
	HandleUtterance(ctx context.Context, sessionID, text string) error
	HandleAudio(ctx context.Context, sessionID string, audio []byte, sampleRate int) error
}

// SessionResolver reports whether a session ID is live. Connections for
// unknown sessions are rejected at upgrade time.
type SessionResolver func(sessionID string) bool

// Server is the WebSocket signal server. One endpoint per session:
// GET /session/{id}/ws.
type Server struct {
	cfg      config.SignalConfig
	hub      *Hub
	handler  Handler
	resolve  SessionResolver
	log      *logging.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer creates the signal server. A nil resolver accepts any session.
func NewServer(cfg config.SignalConfig, hub *Hub, handler Handler, resolve SessionResolver, log *logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		hub:     hub,
		handler: handler,
		resolve: resolve,
		log:     log.Sub("signal.server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Start listens for WebSocket connections until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := s.cfg.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}
	addr := fmt.Sprintf("%s:%d", bind, s.cfg.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/session/", s.handleSession)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("signal server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down signal server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// handleSession upgrades /session/{id}/ws to a WebSocket and runs the read
// loop.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.resolve != nil && !s.resolve(sessionID) {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4 * 1024 * 1024)

	c := newClient(sessionID, conn)
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		c.close()
	}()

	s.readLoop(r.Context(), c)
}

func sessionIDFromPath(path string) (string, bool) {
	const prefix = "/session/"
	const suffix = "/ws"
	if len(path) <= len(prefix)+len(suffix) {
		return "", false
	}
	if path[:len(prefix)] != prefix || path[len(path)-len(suffix):] != suffix {
		return "", false
	}
	id := path[len(prefix) : len(path)-len(suffix)]
	if id == "" {
		return "", false
	}
	return id, true
}

// readLoop dispatches inbound frames until the connection closes. Each
// frame is handled on its own goroutine so a slow generation call never
// blocks the socket.
func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", c.connID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", c.connID).Msg("read error")
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.log.Warn().Err(err).Str("connId", c.connID).Msg("malformed inbound frame")
			continue
		}

		if s.handler == nil {
			continue
		}

		switch frame.Type {
		case TypeUtterance:
			go func(text string) {
				if err := s.handler.HandleUtterance(ctx, c.sessionID, text); err != nil {
					s.log.Warn().Err(err).Str("sessionId", c.sessionID).Msg("utterance handling failed")
				}
			}(frame.Text)
		case TypeAudio:
			go func(audio []byte, rate int) {
				if err := s.handler.HandleAudio(ctx, c.sessionID, audio, rate); err != nil {
					s.log.Warn().Err(err).Str("sessionId", c.sessionID).Msg("audio handling failed")
				}
			}(frame.Audio, frame.SampleRate)
		default:
			s.log.Debug().Str("type", frame.Type).Msg("ignoring unknown frame type")
		}
	}
}

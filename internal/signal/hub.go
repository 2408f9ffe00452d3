package signal

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/logging"
)

// client is one connected WebSocket peer, scoped to a session. Writes are
// serialized by the mutex.
type client struct {
	connID    string
	sessionID string
	conn      *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newClient(sessionID string, conn *websocket.Conn) *client {
	return &client{
		connID:    uuid.New().String(),
		sessionID: sessionID,
		conn:      conn,
	}
}

func (c *client) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// Hub fans session messages out to every client watching that session. It
// implements the orchestrator's Signaler and the transcript Emitter.
//
// Consecutive identical transcript payloads for a session are suppressed;
// a recognizer re-delivering the same finalized text must not duplicate the
// live display.
type Hub struct {
	log *logging.Logger

	mu       sync.RWMutex
	clients  map[string]map[string]*client // sessionID → connID → client
	lastSent map[string]string             // sessionID → last transcript payload
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:      log.Sub("signal"),
		clients:  make(map[string]map[string]*client),
		lastSent: make(map[string]string),
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.sessionID] == nil {
		h.clients[c.sessionID] = make(map[string]*client)
	}
	h.clients[c.sessionID][c.connID] = c
	h.log.Info().Str("connId", c.connID).Str("sessionId", c.sessionID).Msg("client connected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers := h.clients[c.sessionID]; peers != nil {
		delete(peers, c.connID)
		if len(peers) == 0 {
			delete(h.clients, c.sessionID)
			delete(h.lastSent, c.sessionID)
		}
	}
	h.log.Info().Str("connId", c.connID).Str("sessionId", c.sessionID).Msg("client disconnected")
}

// broadcast sends a payload to every client of the session.
func (h *Hub) broadcast(sessionID string, payload []byte) {
	h.mu.RLock()
	peers := make([]*client, 0, len(h.clients[sessionID]))
	for _, c := range h.clients[sessionID] {
		peers = append(peers, c)
	}
	h.mu.RUnlock()

	for _, c := range peers {
		if err := c.send(payload); err != nil {
			h.log.Warn().Err(err).Str("connId", c.connID).Msg("broadcast send failed")
		}
	}
}

// EmitWarning broadcasts the interview_warning message.
func (h *Hub) EmitWarning(sessionID, message string) {
	payload, err := encode(NewWarning(message))
	if err != nil {
		h.log.Error().Err(err).Msg("encoding warning message")
		return
	}
	h.log.Info().Str("sessionId", sessionID).Msg("emitting interview_warning")
	h.broadcast(sessionID, payload)
}

// EmitCompleted broadcasts the interview_completed message.
func (h *Hub) EmitCompleted(sessionID, message, token string, durationMinutes int) {
	payload, err := encode(NewCompleted(message, token, durationMinutes))
	if err != nil {
		h.log.Error().Err(err).Msg("encoding completed message")
		return
	}
	h.log.Info().Str("sessionId", sessionID).Str("token", token).Msg("emitting interview_completed")
	h.broadcast(sessionID, payload)
}

// EmitTurn broadcasts one recorded turn as a transcript event, skipping a
// payload identical to the previous one for the session.
func (h *Hub) EmitTurn(sessionID string, turn domain.Turn) {
	payload, err := encode(NewTranscript(sessionID, turn))
	if err != nil {
		h.log.Error().Err(err).Msg("encoding transcript message")
		return
	}

	h.mu.Lock()
	if h.lastSent[sessionID] == string(payload) {
		h.mu.Unlock()
		h.log.Debug().Str("sessionId", sessionID).Int("index", turn.Index).Msg("duplicate transcript payload suppressed")
		return
	}
	h.lastSent[sessionID] = string(payload)
	h.mu.Unlock()

	h.broadcast(sessionID, payload)
}

// SessionClientCount returns the number of clients watching a session.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// CloseAll closes every connected client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, peers := range h.clients {
		for id, c := range peers {
			c.close()
			delete(peers, id)
		}
		delete(h.clients, sessionID)
	}
}

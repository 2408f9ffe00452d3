package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/failover"
	"github.com/soyeahso/interviewd/internal/history"
	"github.com/soyeahso/interviewd/internal/logging"
	"github.com/soyeahso/interviewd/internal/provider"
	"github.com/soyeahso/interviewd/internal/transcript"
)

// DurationResolver looks up the planned duration for a booking. ok=false
// means the booking or its slot duration is unknown and the configured
// default applies.
type DurationResolver interface {
	GetDuration(ctx context.Context, bookingID string) (d time.Duration, ok bool, err error)
}

// SessionCreator persists the session row at room-live time. Optional;
// drivers without session rows skip it.
type SessionCreator interface {
	CreateSession(ctx context.Context, sess *domain.Session) error
}

// Guards builds the per-session failover guards. Each session owns its own
// provider state, so guards are constructed fresh per session.
type Guards struct {
	Generate   func() *failover.Guard[provider.GenerateRequest, string]
	Transcribe func() *failover.Guard[provider.TranscribeRequest, string]
}

// Deps are the collaborators shared across sessions.
type Deps struct {
	Store    transcript.Store
	Creator  SessionCreator
	Emitter  transcript.Emitter
	Signaler Signaler
	Bookings BookingService
	Resolver DurationResolver
	Synth    provider.Synthesizer
	Guards   Guards
}

const defaultInstructions = "You are a professional interviewer conducting a live voice interview with a candidate. " +
	"Ask one question at a time, follow up on the candidate's answers, and keep your responses short and conversational. " +
	"Never end the interview yourself; the session is closed for you when time runs out."

// Manager owns the live sessions: it creates them, routes inbound frames to
// the right orchestrator, and releases them once terminated. Sessions are
// fully independent of one another.
type Manager struct {
	cfg  config.Config
	deps Deps
	log  *logging.Logger
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Orchestrator
}

// NewManager creates a session manager.
func NewManager(cfg config.Config, deps Deps, log *logging.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		log:      log.Sub("sessions"),
		now:      time.Now,
		sessions: make(map[string]*Orchestrator),
	}
}

// Start creates a session for the booking, wires its orchestrator and
// timer, and begins ticking. Duration comes from the booking's slot; when
// the lookup fails or returns nothing the configured default applies.
// Empty instructions fall back to the standard interviewer prompt.
func (m *Manager) Start(ctx context.Context, bookingID, instructions string) (*domain.Session, error) {
	duration := time.Duration(m.cfg.Session.DefaultDurationMinutes) * time.Minute
	if m.deps.Resolver != nil && bookingID != "" {
		d, ok, err := m.deps.Resolver.GetDuration(ctx, bookingID)
		switch {
		case err != nil:
			m.log.Warn().Err(err).Str("bookingId", bookingID).Msg("duration lookup failed, using default")
		case ok:
			duration = d
		}
	}

	sess := domain.NewSession(uuid.NewString(), bookingID, m.now(), duration)

	if m.deps.Creator != nil {
		if err := m.deps.Creator.CreateSession(ctx, sess); err != nil {
			m.log.Warn().Err(err).Str("sessionId", sess.ID).Msg("persisting session row failed")
		}
	}

	if instructions == "" {
		instructions = defaultInstructions
	}

	recorder := transcript.NewRecorder(sess.ID, m.deps.Store, m.deps.Emitter, m.log)
	window := history.NewWindow(history.Budget{
		MaxTokens:   m.cfg.History.MaxTokens,
		MaxMessages: m.cfg.History.MaxMessages,
		MinMessages: m.cfg.History.MinMessages,
	}, nil, m.log)
	window.SetInstructions(instructions)

	var transcribe *failover.Guard[provider.TranscribeRequest, string]
	if m.deps.Guards.Transcribe != nil {
		transcribe = m.deps.Guards.Transcribe()
	}

	orch := NewOrchestrator(
		sess,
		recorder,
		window,
		m.deps.Guards.Generate(),
		transcribe,
		m.deps.Synth,
		m.deps.Signaler,
		m.deps.Bookings,
		time.Duration(m.cfg.Session.PostCloseGraceSeconds)*time.Second,
		m.log,
	)

	timer := NewTimer(
		sess,
		orch,
		time.Duration(m.cfg.Session.WarningLeadSeconds)*time.Second,
		time.Duration(m.cfg.Session.TickIntervalSeconds)*time.Second,
		m.log,
	)

	m.mu.Lock()
	m.sessions[sess.ID] = orch
	m.mu.Unlock()

	go func() {
		timer.Run(ctx)
		m.release(sess.ID)
	}()

	m.log.Info().
		Str("sessionId", sess.ID).
		Str("bookingId", bookingID).
		Dur("duration", duration).
		Msg("session started")

	return sess, nil
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	m.log.Info().Str("sessionId", sessionID).Msg("session released")
}

// Get returns the orchestrator for a live session.
func (m *Manager) Get(sessionID string) (*Orchestrator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orch, ok := m.sessions[sessionID]
	return orch, ok
}

// Has reports whether the session is live. Used by the signal server to
// reject connections for unknown sessions.
func (m *Manager) Has(sessionID string) bool {
	_, ok := m.Get(sessionID)
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// HandleUtterance routes a finalized utterance to its session.
func (m *Manager) HandleUtterance(ctx context.Context, sessionID, text string) error {
	orch, ok := m.Get(sessionID)
	if !ok {
		return fmt.Errorf("no live session %s", sessionID)
	}
	return orch.ProcessUtterance(ctx, text)
}

// HandleAudio routes a finalized audio segment to its session.
func (m *Manager) HandleAudio(ctx context.Context, sessionID string, audio []byte, sampleRate int) error {
	orch, ok := m.Get(sessionID)
	if !ok {
		return fmt.Errorf("no live session %s", sessionID)
	}
	return orch.ProcessAudio(ctx, audio, sampleRate)
}

// Package domain holds the core types shared across the orchestrator:
// sessions, lifecycle phases, and transcript turns.
package domain

import (
	"sync/atomic"
	"time"
)

// Phase is the lifecycle state of a session. Transitions are monotonic:
// Active → Warning → Closing → Terminated. No phase is ever re-entered.
type Phase int32

const (
	PhaseActive Phase = iota
	PhaseWarning
	PhaseClosing
	PhaseTerminated
)

// String returns the phase name for logging and signaling.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseWarning:
		return "warning"
	case PhaseClosing:
		return "closing"
	case PhaseTerminated:
		return "terminated"
	}
	return "unknown"
}

// Session is one time-boxed conversational interaction between the
// automated interviewer and a candidate. The phase field is written by the
// session timer and read by the turn-processing path, which may run on a
// different goroutine, so access goes through atomic load/store.
type Session struct {
	ID             string        `json:"id"`
	BookingID      string        `json:"bookingId"`
	ScheduledStart time.Time     `json:"scheduledStart"`
	Duration       time.Duration `json:"duration"`

	phase atomic.Int32
}

// NewSession creates a session in the Active phase. Duration is immutable
// after creation.
func NewSession(id, bookingID string, scheduledStart time.Time, duration time.Duration) *Session {
	s := &Session{
		ID:             id,
		BookingID:      bookingID,
		ScheduledStart: scheduledStart,
		Duration:       duration,
	}
	s.phase.Store(int32(PhaseActive))
	return s
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// SetPhase advances the lifecycle phase. Backwards transitions are ignored
// so the monotonic invariant holds even if a stale writer races a newer one.
func (s *Session) SetPhase(p Phase) {
	for {
		cur := s.phase.Load()
		if int32(p) <= cur {
			return
		}
		if s.phase.CompareAndSwap(cur, int32(p)) {
			return
		}
	}
}

// ScheduledEnd is the wall-clock time at which the session must close.
func (s *Session) ScheduledEnd() time.Time {
	return s.ScheduledStart.Add(s.Duration)
}

// Accepting reports whether new user turns may be processed in the current
// phase. Active and Warning are functionally identical for turn processing.
func (s *Session) Accepting() bool {
	p := s.Phase()
	return p == PhaseActive || p == PhaseWarning
}

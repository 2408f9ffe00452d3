package session

import (
	"context"
	"time"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/logging"
)

// Lifecycle receives the timer's phase-boundary callbacks. The orchestrator
// implements it.
type Lifecycle interface {
	Warn(ctx context.Context)
	Close(ctx context.Context)
}

// Timer converts wall-clock progress into lifecycle transitions. It is the
// only writer of the session's phase besides its own closure path, and it
// never blocks the turn-processing path: the two activities share nothing
// but the atomic phase field.
type Timer struct {
	sess         *domain.Session
	lifecycle    Lifecycle
	warningLead  time.Duration
	tickInterval time.Duration
	log          *logging.Logger
	now          func() time.Time

	warned bool
}

// NewTimer creates a timer for one session.
func NewTimer(sess *domain.Session, lifecycle Lifecycle, warningLead, tickInterval time.Duration, log *logging.Logger) *Timer {
	return &Timer{
		sess:         sess,
		lifecycle:    lifecycle,
		warningLead:  warningLead,
		tickInterval: tickInterval,
		log:          log.Sub("timer").Session(sess.ID),
		now:          time.Now,
	}
}

// Run ticks at the configured interval until the session terminates or the
// context is cancelled. Context cancellation also drives the closure
// procedure so a shut-down server never leaves a session half-open.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.terminate(context.Background())
			return
		case <-ticker.C:
			if !t.Tick(ctx) {
				return
			}
		}
	}
}

// Tick evaluates remaining time once and applies any due transition. It
// returns false once the session has terminated and ticking should stop.
// A session started after its scheduled end closes on the first tick.
func (t *Timer) Tick(ctx context.Context) bool {
	if t.sess.Phase() == domain.PhaseTerminated {
		return false
	}

	remaining := t.sess.ScheduledEnd().Sub(t.now())

	if remaining <= 0 {
		t.terminate(ctx)
		return false
	}

	if !t.warned && t.sess.Phase() == domain.PhaseActive && remaining <= t.warningLead {
		t.warned = true
		t.sess.SetPhase(domain.PhaseWarning)
		t.log.Info().Dur("remaining", remaining).Msg("session entering warning phase")
		t.lifecycle.Warn(ctx)
	}

	return true
}

// terminate drives CLOSING, runs the closure procedure, and moves to
// TERMINATED. Termination is unconditional once time is exceeded: a
// panicking or failing closure step is logged and never holds the phase
// back.
func (t *Timer) terminate(ctx context.Context) {
	if t.sess.Phase() >= domain.PhaseClosing {
		return
	}

	t.sess.SetPhase(domain.PhaseClosing)
	t.log.Info().Msg("session time exceeded, closing")

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.log.Error().Interface("panic", r).Msg("closure procedure panicked")
			}
		}()
		t.lifecycle.Close(ctx)
	}()

	t.sess.SetPhase(domain.PhaseTerminated)
	t.log.Info().Msg("session terminated")
}

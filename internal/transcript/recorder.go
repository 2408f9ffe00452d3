// Package transcript produces the single, ordered, authoritative record of
// everything said in a session.
package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/logging"
)

// Store is the durable transcript collaborator. Drivers live in
// internal/store.
type Store interface {
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error
	ReadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Emitter forwards recorded turns to the live signaling channel for
// real-time display.
type Emitter interface {
	EmitTurn(sessionID string, turn domain.Turn)
}

// writeAttempts bounds retries of a failed durable write. On exhaustion the
// turn survives in memory and the loss is logged; the index is never
// skipped.
const writeAttempts = 3

// Recorder assigns each turn the next value of a single monotonically
// increasing per-session counter. Both producer paths (recognition
// completions and generation completions) serialize through Record's mutex,
// so indices are gap-free from 0 and store appends happen in index order.
type Recorder struct {
	sessionID string
	store     Store
	emitter   Emitter
	log       *logging.Logger
	now       func() time.Time

	mu    sync.Mutex
	next  int
	turns []domain.Turn
}

// NewRecorder creates a recorder for one session. The emitter may be nil
// when no live channel is attached.
func NewRecorder(sessionID string, store Store, emitter Emitter, log *logging.Logger) *Recorder {
	return &Recorder{
		sessionID: sessionID,
		store:     store,
		emitter:   emitter,
		log:       log.Sub("transcript").Session(sessionID),
		now:       time.Now,
	}
}

// Record ingests one finalized utterance: assigns the next index, stamps
// the time, appends to the durable store, and forwards to the live channel.
// Interim recognition results must never reach this method.
//
// A durable-write failure is retried a bounded number of times and then
// logged as a data-loss warning; it never fails the conversational turn and
// never skips the index, so later turns stay consistent.
func (r *Recorder) Record(ctx context.Context, role, content string) domain.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()

	turn := domain.Turn{
		Role:      role,
		Content:   content,
		Index:     r.next,
		Timestamp: r.now(),
	}
	r.next++
	r.turns = append(r.turns, turn)

	r.persistLocked(ctx, turn)

	if r.emitter != nil {
		r.emitter.EmitTurn(r.sessionID, turn)
	}

	r.log.Debug().Int("index", turn.Index).Str("role", role).Msg("turn recorded")
	return turn
}

func (r *Recorder) persistLocked(ctx context.Context, turn domain.Turn) {
	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(50 * time.Millisecond << (attempt - 1))
		}
		if err = r.store.AppendTurn(ctx, r.sessionID, turn); err == nil {
			return
		}
	}
	r.log.Warn().
		Err(err).
		Int("index", turn.Index).
		Int("attempts", writeAttempts).
		Msg("transcript write failed, turn retained in memory only")
}

// Get returns all recorded turns in index order.
func (r *Recorder) Get() []domain.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Turn, len(r.turns))
	copy(out, r.turns)
	return out
}

// Len returns the number of recorded turns.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}

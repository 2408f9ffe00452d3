package store

import (
	"context"
	"sync"

	"github.com/soyeahso/interviewd/internal/domain"
)

// MemoryTranscriptStore is an in-memory transcript.Store implementation,
// used in tests and when running without persistence.
type MemoryTranscriptStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

// NewMemoryTranscriptStore creates an in-memory transcript store.
func NewMemoryTranscriptStore() *MemoryTranscriptStore {
	return &MemoryTranscriptStore{turns: make(map[string][]domain.Turn)}
}

func (s *MemoryTranscriptStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

func (s *MemoryTranscriptStore) ReadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.turns[sessionID]
	out := make([]domain.Turn, len(src))
	copy(out, src)
	return out, nil
}

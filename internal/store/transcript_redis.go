package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soyeahso/interviewd/internal/domain"
)

const (
	// Redis key prefix for session transcripts.
	transcriptKeyPrefix = "transcript:"
	// Transcripts linger long enough for the post-session evaluation job
	// to collect them.
	defaultTranscriptTTL = 72 * time.Hour
)

// RedisTranscriptStore implements transcript.Store using a Redis list per
// session. Turns are appended as JSON documents in index order.
type RedisTranscriptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTranscriptStore creates a Redis-backed transcript store.
func NewRedisTranscriptStore(client *redis.Client, ttl time.Duration) *RedisTranscriptStore {
	if ttl <= 0 {
		ttl = defaultTranscriptTTL
	}
	return &RedisTranscriptStore{client: client, ttl: ttl}
}

func (s *RedisTranscriptStore) key(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func (s *RedisTranscriptStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	val, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn %d: %w", turn.Index, err)
	}

	key := s.key(sessionID)
	if err := s.client.RPush(ctx, key, val).Err(); err != nil {
		return fmt.Errorf("appending turn %d: %w", turn.Index, err)
	}
	// Refresh TTL on every append so an active session never expires.
	return s.client.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisTranscriptStore) ReadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	vals, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	turns := make([]domain.Turn, 0, len(vals))
	for _, v := range vals {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, fmt.Errorf("decoding turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

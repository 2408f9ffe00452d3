package store

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/interviewd/internal/domain"
)

// SQLiteTranscriptStore implements transcript.Store backed by SQLite.
type SQLiteTranscriptStore struct {
	db *DB
}

// NewSQLiteTranscriptStore creates a transcript store using the given
// database.
func NewSQLiteTranscriptStore(db *DB) *SQLiteTranscriptStore {
	return &SQLiteTranscriptStore{db: db}
}

// CreateSession records the session row at room-live time.
func (s *SQLiteTranscriptStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, booking_id, scheduled_start, duration_seconds)
		 VALUES (?, ?, ?, ?)`,
		sess.ID, sess.BookingID,
		sess.ScheduledStart.UTC().Format(time.RFC3339),
		int64(sess.Duration.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// AppendTurn appends one turn. The (session_id, idx) uniqueness constraint
// backs the recorder's ordering guarantee at the storage layer.
func (s *SQLiteTranscriptStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO turns (session_id, idx, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, turn.Index, turn.Role, turn.Content,
		turn.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting turn %d: %w", turn.Index, err)
	}
	return nil
}

// ReadTurns returns all turns for a session in index order.
func (s *SQLiteTranscriptStore) ReadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT idx, role, content, timestamp FROM turns
		 WHERE session_id = ? ORDER BY idx`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var ts string
		if err := rows.Scan(&turn.Index, &turn.Role, &turn.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

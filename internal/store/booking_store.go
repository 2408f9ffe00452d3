package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStore reads and updates booking records around session boundaries.
// Durations come from the booked slot; sessions whose slot carries no
// duration fall back to the orchestrator's configured default.
type BookingStore struct {
	db *DB
}

// NewBookingStore creates a booking store using the given database.
func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{db: db}
}

// GetDuration returns the planned duration of the booking's slot, or
// (0, false) when the booking is unknown or its slot has no duration set.
func (s *BookingStore) GetDuration(ctx context.Context, bookingID string) (time.Duration, bool, error) {
	var minutes int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT sl.duration_minutes FROM bookings b
		 JOIN slots sl ON sl.id = b.slot_id
		 WHERE b.id = ?`, bookingID,
	).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up booking %s: %w", bookingID, err)
	}
	if minutes <= 0 {
		return 0, false, nil
	}
	return time.Duration(minutes) * time.Minute, true, nil
}

// MarkCompleted flips the booking status to completed.
func (s *BookingStore) MarkCompleted(ctx context.Context, bookingID string) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE bookings SET status = 'completed' WHERE id = ?`, bookingID,
	)
	if err != nil {
		return fmt.Errorf("marking booking %s completed: %w", bookingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	return nil
}

// CreateEvaluation creates a pending evaluation record for the booking and
// returns its id.
func (s *BookingStore) CreateEvaluation(ctx context.Context, bookingID string, durationMinutes int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO evaluations (id, booking_id, status, duration_minutes)
		 VALUES (?, ?, 'pending', ?)`,
		id, bookingID, durationMinutes,
	)
	if err != nil {
		return "", fmt.Errorf("creating evaluation for booking %s: %w", bookingID, err)
	}
	return id, nil
}

// CreateBooking inserts a slot and booking pair. Used by the CLI and tests
// to seed schedulable interviews.
func (s *BookingStore) CreateBooking(ctx context.Context, candidate string, start time.Time, durationMinutes int) (string, error) {
	slotID := uuid.NewString()
	bookingID := uuid.NewString()
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO slots (id, start_time, end_time, duration_minutes)
		 VALUES (?, ?, ?, ?)`,
		slotID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), durationMinutes,
	); err != nil {
		return "", fmt.Errorf("inserting slot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, slot_id, candidate) VALUES (?, ?, ?)`,
		bookingID, slotID, candidate,
	); err != nil {
		return "", fmt.Errorf("inserting booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return bookingID, nil
}

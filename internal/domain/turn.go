package domain

import "time"

// Role constants for transcript turns.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Turn is one recorded utterance with a fixed position in the transcript.
// Index values are assigned by the transcript recorder from a single
// per-session counter: gap-free from 0 and strictly increasing regardless
// of which pipeline (recognition or generation) produced the turn.
// A Turn is never mutated after creation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

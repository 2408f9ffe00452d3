package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id               TEXT PRIMARY KEY,
				booking_id       TEXT NOT NULL DEFAULT '',
				scheduled_start  TEXT NOT NULL,
				duration_seconds INTEGER NOT NULL,
				created_at       TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_sessions_booking ON sessions (booking_id);

			CREATE TABLE turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL,
				idx         INTEGER NOT NULL,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				timestamp   TEXT NOT NULL,
				UNIQUE (session_id, idx)
			);

			CREATE INDEX idx_turns_session ON turns (session_id, idx);
		`,
	},
	{
		Version: 2,
		Name:    "create slots, bookings, and evaluations",
		SQL: `
			CREATE TABLE slots (
				id               TEXT PRIMARY KEY,
				start_time       TEXT NOT NULL,
				end_time         TEXT NOT NULL,
				duration_minutes INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE bookings (
				id         TEXT PRIMARY KEY,
				slot_id    TEXT NOT NULL REFERENCES slots(id),
				candidate  TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL DEFAULT 'scheduled',
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_bookings_slot ON bookings (slot_id);

			CREATE TABLE evaluations (
				id               TEXT PRIMARY KEY,
				booking_id       TEXT NOT NULL REFERENCES bookings(id),
				status           TEXT NOT NULL DEFAULT 'pending',
				duration_minutes INTEGER,
				created_at       TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_evaluations_booking ON evaluations (booking_id);
		`,
	},
}

// Package store persists accepted events as an append-only log in SQLite.
//
// The log is the durability boundary of the ingest path: an event is only
// acknowledged once its row is committed, and every previously appended
// event can be re-read after a restart in insertion order. There are no
// update or delete operations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/drivepulse/drivepulse/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	device_id  TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	type       TEXT NOT NULL,
	payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`

// Store is an append-only event log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the log at path and runs migrations.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	// Ingest workers append concurrently; wait out writer contention
	// instead of surfacing SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one event to the log. Appending an id that already exists
// is a no-op: the stored row wins and Append reports inserted=false. This
// makes producer retries safe without a read-before-write.
func (s *Store) Append(ctx context.Context, ev *event.Event) (inserted bool, err error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return false, fmt.Errorf("encode payload: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, device_id, timestamp, type, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		ev.ID, ev.DeviceID, ev.Timestamp.UTC().Format(time.RFC3339Nano), ev.Type, string(payload),
	)
	if err != nil {
		return false, fmt.Errorf("append event %s: %w", ev.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append event %s: %w", ev.ID, err)
	}
	return n > 0, nil
}

// Query returns stored events in insertion order, optionally filtered to a
// single producer-supplied type. A single statement runs against one SQLite
// read snapshot, so concurrent appends never produce a torn result.
func (s *Store) Query(ctx context.Context, typeFilter string) ([]*event.Event, error) {
	q := `SELECT id, device_id, timestamp, type, payload FROM events ORDER BY seq`
	args := []any{}
	if typeFilter != "" {
		q = `SELECT id, device_id, timestamp, type, payload FROM events WHERE type = ? ORDER BY seq`
		args = append(args, typeFilter)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (*event.Event, error) {
	var ev event.Event
	var ts, payload string
	if err := rows.Scan(&ev.ID, &ev.DeviceID, &ts, &ev.Type, &payload); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("event %s: bad stored timestamp %q: %w", ev.ID, ts, err)
	}
	ev.Timestamp = parsed
	if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
		return nil, fmt.Errorf("event %s: decode payload: %w", ev.ID, err)
	}
	return &ev, nil
}

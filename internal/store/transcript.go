package store

import (
	"fmt"
	"time"
)

// Turn is one logged conversation message.
type Turn struct {
	ID        int64
	SessionID string
	Role      string
	Name      string
	Content   string
	At        time.Time
}

// Session is one logged conversation.
type Session struct {
	ID        string
	StartedAt time.Time
	Turns     int
}

// StartSession records the start of a conversation. Repeated IDs are
// ignored.
func (db *DB) StartSession(id string, at time.Time) error {
	_, err := db.sql.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("start session %s: %w", id, err)
	}
	return nil
}

// AppendTurn logs a message in a session, creating the session if needed.
func (db *DB) AppendTurn(t Turn) error {
	if err := db.StartSession(t.SessionID, t.At); err != nil {
		return err
	}
	_, err := db.sql.Exec(
		`INSERT INTO turns (session_id, role, name, content, at) VALUES (?, ?, ?, ?, ?)`,
		t.SessionID, t.Role, t.Name, t.Content, t.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Turns returns the turns of a session in order.
func (db *DB) Turns(sessionID string) ([]Turn, error) {
	rows, err := db.sql.Query(
		`SELECT id, session_id, role, name, content, at FROM turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		var at string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Name, &t.Content, &at); err != nil {
			return nil, err
		}
		t.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentSessions returns up to limit sessions, newest first. A limit of 0
// defaults to 20.
func (db *DB) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.sql.Query(
		`SELECT s.id, s.started_at, COUNT(t.id)
		 FROM sessions s LEFT JOIN turns t ON t.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var at string
		if err := rows.Scan(&s.ID, &at, &s.Turns); err != nil {
			return nil, err
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sessions persists analytical conversations. Each user owns a
// sequence of numbered sessions; each session has an append-only exchange
// log that seeds follow-up plan generation.
package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_session (
	user_id    TEXT    NOT NULL,
	session_id INTEGER NOT NULL,
	flag       INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, session_id)
);
CREATE TABLE IF NOT EXISTS session_exchange (
	user_id    TEXT    NOT NULL,
	session_id INTEGER NOT NULL,
	question   TEXT    NOT NULL,
	answer     TEXT    NOT NULL,
	ts         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchange_session
	ON session_exchange (user_id, session_id, ts);
`

// Store is the SQLite-backed session store. Appends to the same session are
// serialized through a per-session mutex so interleaved exchanges keep a
// consistent timestamp order.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[datatypes.SessionKey]*sync.Mutex
}

// Open opens (and if needed initializes) the session store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store %s: %w", path, err)
	}
	// Appends come from concurrent requests; a single connection avoids
	// SQLITE_BUSY from parallel writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	slog.Info("Session store ready", "path", path)
	return &Store{
		db:    db,
		locks: make(map[datatypes.SessionKey]*sync.Mutex),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) sessionLock(key datatypes.SessionKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Bootstrap returns the session id a user should converse under.
//
// # Description
//
// If the user has an open session (flag 0), the one with the highest id is
// reused. Otherwise a new session numbered one past the user's highest is
// created, starting at 1 for a new user. Calling Bootstrap repeatedly
// without activity returns the same id.
//
// # Outputs
//   - int: the session id.
//   - bool: true when an existing open session was resumed.
//   - error: storage failure.
func (s *Store) Bootstrap(ctx context.Context, userID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(session_id) FROM user_session WHERE user_id = ? AND flag = 0`,
		userID).Scan(&open)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up open session: %w", err)
	}
	if open.Valid {
		return int(open.Int64), true, nil
	}

	var max sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(session_id) FROM user_session WHERE user_id = ?`,
		userID).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up last session: %w", err)
	}
	next := 1
	if max.Valid {
		next = int(max.Int64) + 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_session (user_id, session_id, flag, created_at) VALUES (?, ?, 0, ?)`,
		userID, next, time.Now().UnixMilli())
	if err != nil {
		return 0, false, fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("Created session", "user", userID, "session", next)
	return next, false, nil
}

// MarkActive flags a session as in use, ending the bootstrap reuse window.
// Called when the session's first exchange is persisted. A later Bootstrap
// for the user then allocates a fresh session.
func (s *Store) MarkActive(ctx context.Context, key datatypes.SessionKey) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_session SET flag = 1 WHERE user_id = ? AND session_id = ?`,
		key.UserID, key.SessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session active: %w", err)
	}
	return nil
}

// Append adds one exchange to the session log. Appends to the same session
// are serialized; the entry's timestamp is assigned here so log order and
// timestamp order agree.
func (s *Store) Append(ctx context.Context, key datatypes.SessionKey, question, answer string) error {
	lock := s.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_exchange (user_id, session_id, question, answer, ts) VALUES (?, ?, ?, ?, ?)`,
		key.UserID, key.SessionID, question, answer, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

// Recent returns the session's last n exchanges, oldest first.
func (s *Store) Recent(ctx context.Context, key datatypes.SessionKey, n int) ([]datatypes.ExchangeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, ts FROM (
			SELECT question, answer, ts FROM session_exchange
			WHERE user_id = ? AND session_id = ?
			ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC`,
		key.UserID, key.SessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent exchanges: %w", err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// History returns the session's full exchange log, oldest first.
func (s *Store) History(ctx context.Context, key datatypes.SessionKey) ([]datatypes.ExchangeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, ts FROM session_exchange
		 WHERE user_id = ? AND session_id = ? ORDER BY ts ASC`,
		key.UserID, key.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

func scanExchanges(rows *sql.Rows) ([]datatypes.ExchangeEntry, error) {
	var out []datatypes.ExchangeEntry
	for rows.Next() {
		var e datatypes.ExchangeEntry
		if err := rows.Scan(&e.Question, &e.Answer, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Package store persists per-user chat modes and conversation turns
// in a local SQLite database.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds how many turns GetTurns returns when the
// caller passes no limit.
const DefaultHistoryLimit = 20

// Turn is one stored chat message. CreatedAt keeps SQLite's text form.
type Turn struct {
	ID        int64  `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Role      string `db:"role" json:"role"`
	Content   string `db:"content" json:"content"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Session summarizes one stored user.
type Session struct {
	UserID     string `db:"user_id" json:"user_id"`
	Mode       Mode   `db:"chat_mode" json:"mode"`
	Turns      int    `db:"turns" json:"turns"`
	LastActive string `db:"last_active" json:"last_active"`
}

// Store wraps the SQLite database holding users and their history.
// Writes are serialized through a mutex; SQLite handles one writer at
// a time anyway.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

// Open creates the parent directory if needed, opens (or creates) the
// database at path and applies pragmas and schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			chat_mode INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			last_active TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(user_id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_user ON turns(user_id, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureUser inserts the row on first contact and refreshes
// last_active on every later touch. Callers hold s.mu.
func (s *Store) ensureUser(userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO users (user_id) VALUES (?)
		ON CONFLICT(user_id) DO UPDATE SET last_active = datetime('now')
	`, userID)
	if err != nil {
		return fmt.Errorf("ensure user %q: %w", userID, err)
	}
	return nil
}

// GetMode returns the user's current mode, creating the user in
// DataMode on first access.
func (s *Store) GetMode(userID string) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUser(userID); err != nil {
		return DataMode, err
	}
	var v int
	if err := s.db.Get(&v, `SELECT chat_mode FROM users WHERE user_id = ?`, userID); err != nil {
		return DataMode, fmt.Errorf("get mode for %q: %w", userID, err)
	}
	return ParseMode(v), nil
}

// SetMode records the user's mode, creating the user if needed.
func (s *Store) SetMode(userID string, m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUser(userID); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		UPDATE users SET chat_mode = ?, last_active = datetime('now') WHERE user_id = ?
	`, int(m), userID)
	if err != nil {
		return fmt.Errorf("set mode for %q: %w", userID, err)
	}
	return nil
}

// AppendTurn stores one message at the end of the user's history.
func (s *Store) AppendTurn(userID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUser(userID); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO turns (user_id, role, content) VALUES (?, ?, ?)
	`, userID, role, content)
	if err != nil {
		return fmt.Errorf("append turn for %q: %w", userID, err)
	}
	return nil
}

// GetTurns returns the newest limit turns for userID in chronological
// order. The insertion id breaks timestamp ties, so turns written
// within the same second still come back in the order they were
// appended. limit <= 0 means DefaultHistoryLimit.
func (s *Store) GetTurns(userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var turns []Turn
	err := s.db.Select(&turns, `
		SELECT id, user_id, role, content, created_at
		FROM turns
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get turns for %q: %w", userID, err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ClearTurns deletes the user's history and reports how many turns
// were removed.
func (s *Store) ClearTurns(userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM turns WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear turns for %q: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear turns for %q: %w", userID, err)
	}
	return n, nil
}

// Sessions lists every stored user with its mode and turn count,
// ordered by user id.
func (s *Store) Sessions() ([]Session, error) {
	var sessions []Session
	err := s.db.Select(&sessions, `
		SELECT u.user_id, u.chat_mode, u.last_active, COUNT(t.id) AS turns
		FROM users u
		LEFT JOIN turns t ON t.user_id = u.user_id
		GROUP BY u.user_id
		ORDER BY u.user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

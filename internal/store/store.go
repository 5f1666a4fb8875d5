// Package store keeps per-visitor values and anonymous site analytics in SQLite.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB with portfolio-specific helpers.
type Store struct {
	db   *sql.DB
	salt string
}

// Open creates or opens the database at path.
func Open(path, salt string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, salt: salt}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory database, used by tests.
func OpenMemory(salt string) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	s := &Store{db: db, salt: salt}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS session_values (
	visitor_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (visitor_id, key)
);

CREATE TABLE IF NOT EXISTS visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,  -- never the raw address
	user_agent TEXT,
	path TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS section_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	visitor_id TEXT NOT NULL,
	section TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
CREATE INDEX IF NOT EXISTS idx_section_views_section ON section_views(section);
`

// Value returns the stored value for a visitor key.
func (s *Store) Value(visitorID, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(
		`SELECT value FROM session_values WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s for visitor: %w", key, err)
	}
	return v, true, nil
}

// SetValue upserts a visitor key.
func (s *Store) SetValue(visitorID, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO session_values (visitor_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, visitorID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing %s for visitor: %w", key, err)
	}
	return nil
}

// KV binds the store to one visitor. Failures are logged and read as
// "no value", so a broken database never breaks navigation.
type KV struct {
	store     *Store
	visitorID string
}

// KV returns the key-value view for visitorID.
func (s *Store) KV(visitorID string) *KV {
	return &KV{store: s, visitorID: visitorID}
}

func (kv *KV) Get(key string) (string, bool) {
	v, ok, err := kv.store.Value(kv.visitorID, key)
	if err != nil {
		slog.Warn("session value read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (kv *KV) Set(key, value string) {
	if err := kv.store.SetValue(kv.visitorID, key, value); err != nil {
		slog.Warn("session value write failed", "key", key, "error", err)
	}
}

// Hash returns a salted, truncated SHA-256 of v. It is stable for one salt,
// so equal addresses or visitor ids still group together.
func (s *Store) Hash(v string) string {
	sum := sha256.Sum256([]byte(v + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordVisit stores one page view with a hashed address.
func (s *Store) RecordVisit(ip, userAgent, path string) error {
	_, err := s.db.Exec(`
		INSERT INTO visits (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, s.Hash(ip), userAgent, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// RecordSectionView stores one accepted navigation.
func (s *Store) RecordSectionView(visitorID, section string) error {
	_, err := s.db.Exec(`
		INSERT INTO section_views (visitor_id, section, timestamp)
		VALUES (?, ?, ?)
	`, visitorID, section, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording section view: %w", err)
	}
	return nil
}

// CleanupOldVisits removes visits older than maxAge and returns how many went.
func (s *Store) CleanupOldVisits(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.db.Exec(`DELETE FROM visits WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up visits: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("privacy cleanup removed old visits", "rows", n)
	}
	return n, nil
}

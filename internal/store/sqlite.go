package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// SQLiteSessions implements Sessions using an embedded SQLite database.
type SQLiteSessions struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns the session
// store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSessions, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteSessions{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteSessions) Close() error {
	return r.db.Close()
}

// Load reads and decodes the chat's state blob. The boolean reports whether a
// blob existed; callers start from Default() when it did not.
func (r *SQLiteSessions) Load(ctx context.Context, chatID int64) (State, bool, error) {
	var blob string
	err := r.db.QueryRowContext(ctx, `
		SELECT state FROM sessions WHERE chat_id = ?`,
		chatID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	s, err := Decode([]byte(blob))
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

// Save encodes and upserts the chat's state blob.
func (r *SQLiteSessions) Save(ctx context.Context, chatID int64, s State) error {
	blob, err := Encode(s)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (chat_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			state      = excluded.state,
			updated_at = excluded.updated_at`,
		chatID, string(blob), time.Now().UTC().Unix(),
	)
	return err
}

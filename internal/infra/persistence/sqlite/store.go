// Package sqlite persists the Entity Store snapshot to a single SQLite row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"upvcerp/internal/infra/persistence/memory"
	"upvcerp/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "upvc-erp.db"

// Store keeps the working state in memory and writes the whole snapshot, as
// one JSON document under domain.StorageKey, before each commit becomes visible.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and hydrates the memory
// store from the persisted snapshot when one exists.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	snapshot, found, err := load(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, path: path}
	s.Store = memory.NewStore(engine, append(opts, memory.WithCommitHook(s.write))...)
	if found {
		s.ImportState(snapshot)
	}
	return s, nil
}

func load(ctx context.Context, db *sql.DB) (domain.Snapshot, bool, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM state WHERE key = ?`, domain.StorageKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode state: %w", err)
	}
	return snapshot.Normalized(), true, nil
}

func (s *Store) write(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return &domain.PersistenceError{Op: "encode snapshot", Err: err}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(key,payload) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload`,
		domain.StorageKey, data); err != nil {
		return &domain.PersistenceError{Op: "upsert snapshot", Err: err}
	}
	return nil
}

// Purge deletes the persisted snapshot row. The in-memory state is untouched.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, domain.StorageKey); err != nil {
		return &domain.PersistenceError{Op: "purge snapshot", Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

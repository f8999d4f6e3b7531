// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics, keeping the whole snapshot in one JSONB row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"upvcerp/internal/infra/persistence/memory"
	"upvcerp/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/upvcerp?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to DefaultDSN).
// It ensures the snapshot table exists and hydrates the in-memory store from any existing row.
func NewStore(dsn string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, found, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	s.Store = memory.NewStore(engine, append(opts, memory.WithCommitHook(s.persist))...)
	if found {
		s.ImportState(snapshot)
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, bool, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM state WHERE key = $1`, domain.StorageKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	if len(payload) == 0 {
		return domain.Snapshot{}, false, nil
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode state: %w", err)
	}
	return snapshot.Normalized(), true, nil
}

func (s *Store) persist(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return &domain.PersistenceError{Op: "encode snapshot", Err: err}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(key,payload) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET payload=EXCLUDED.payload`, domain.StorageKey, data); err != nil {
		return &domain.PersistenceError{Op: "upsert snapshot", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit", Err: err}
	}
	committed = true
	return nil
}

// Purge deletes the snapshot row. The in-memory state is untouched.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = $1`, domain.StorageKey); err != nil {
		return &domain.PersistenceError{Op: "purge snapshot", Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

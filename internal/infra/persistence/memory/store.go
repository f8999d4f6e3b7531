// Package memory provides the in-memory Entity Store. It is used directly for
// tests and ephemeral runs, and wrapped by the sqlite and postgres backends,
// which supply a commit hook for the durable write.
package memory

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"upvcerp/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

// CommitFunc durably writes the snapshot a transaction is about to publish.
// Returning an error aborts the transaction and leaves the store unchanged.
type CommitFunc func(ctx context.Context, snapshot domain.Snapshot) error

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for Now and activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithCommitHook installs the durable write executed before state is swapped in.
func WithCommitHook(fn CommitFunc) Option {
	return func(s *Store) { s.commit = fn }
}

// WithIDSuffix overrides the random identifier suffix source.
func WithIDSuffix(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.suffixFn = fn
		}
	}
}

// Store provides an in-memory transactional store for the ERP domain.
type Store struct {
	mu       sync.RWMutex
	state    memoryState
	engine   *domain.RulesEngine
	nowFn    func() time.Time
	suffixFn func() string
	commit   CommitFunc
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:    newMemoryState(),
		engine:   engine,
		nowFn:    func() time.Time { return time.Now().UTC() },
		suffixFn: RandomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const suffixLen = 9

// RandomSuffix returns nine upper-case base36 characters drawn from a random UUID.
func RandomSuffix() string {
	u := uuid.New()
	text := strings.ToUpper(new(big.Int).SetBytes(u[:]).Text(36))
	if len(text) < suffixLen {
		text = strings.Repeat("0", suffixLen-len(text)) + text
	}
	return text[len(text)-suffixLen:]
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot without
// running rules or the commit hook. Backends use it to load what they read.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine so callers can register rules.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Purge is a no-op for the memory store; there is no durable copy.
func (*Store) Purge(context.Context) error { return nil }

// Close is a no-op for the memory store.
func (*Store) Close() error { return nil }

// RunInTransaction executes fn against a copy of the state. Rules are evaluated
// over the recorded changes, the commit hook persists the result, and only then
// does the copy replace the live state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, transactionView{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commit != nil {
		if err := s.commit(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			var perr *domain.PersistenceError
			if !errors.As(err, &perr) {
				err = &domain.PersistenceError{Op: "commit", Err: err}
			}
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(transactionView{state: &snapshot})
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"upvcerp/internal/infra/persistence/postgres/testutil"
	"upvcerp/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesTableAndLoadsSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	seed := domain.EmptySnapshot()
	seed.Customers = []domain.Customer{{ID: "CUST-1", Name: "Acme"}}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	conn.Rows[domain.StorageKey] = payload

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.ExportState().Customers; len(got) != 1 || got[0].Name != "Acme" {
		t.Fatalf("expected customer loaded from snapshot row, got %+v", got)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsState(t *testing.T) {
	store, conn := openStub(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSupplier(domain.Supplier{Name: "Profiles Ltd"})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	var persisted domain.Snapshot
	if err := json.Unmarshal(conn.Rows[domain.StorageKey], &persisted); err != nil {
		t.Fatalf("decode persisted: %v", err)
	}
	if len(persisted.Suppliers) != 1 || persisted.Suppliers[0].Name != "Profiles Ltd" {
		t.Fatalf("unexpected persisted suppliers: %+v", persisted.Suppliers)
	}
}

func TestRunInTransactionCommitFailureRollsBack(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCustomer(domain.Customer{Name: "Lost"})
		return err
	})
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if perr.Op != "commit" {
		t.Fatalf("unexpected op %q", perr.Op)
	}
	if n := len(store.ExportState().Customers); n != 0 {
		t.Fatalf("expected rollback, found %d customers", n)
	}
}

func TestRunInTransactionBeginFailure(t *testing.T) {
	store, conn := openStub(t)
	conn.FailBegin = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCustomer(domain.Customer{Name: "x"})
		return err
	})
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "begin" {
		t.Fatalf("expected begin PersistenceError, got %v", err)
	}
}

func TestPurgeDeletesRow(t *testing.T) {
	store, conn := openStub(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCustomer(domain.Customer{Name: "x"})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if err := store.Purge(context.Background()); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, ok := conn.Rows[domain.StorageKey]; ok {
		t.Fatalf("expected row removed")
	}
	if len(store.ExportState().Customers) != 1 {
		t.Fatalf("purge must not clear memory")
	}
	if store.DB() == nil {
		t.Fatalf("expected db handle")
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("dial") })
	if _, err := NewStore("postgres://x", nil); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}

	conn.FailExec = false
	conn.FailQuery = true
	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "select state") {
		t.Fatalf("expected select error, got %v", err)
	}

	conn.FailQuery = false
	conn.Rows[domain.StorageKey] = []byte("nope")
	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "decode state") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upvcerp/pkg/domain"
)

var idPattern = regexp.MustCompile(`^INV-[0-9A-Z]{9}$`)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC) }
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil, WithClock(fixedClock()))
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindInventoryItem("missing"); ok {
			t.Fatalf("expected missing lookup")
		}
		created, err := tx.CreateInventoryItem(domain.InventoryItem{SKU: "PRF-01", Name: "Frame", Quantity: 10, Cost: 100})
		require.NoError(t, err)
		assert.Regexp(t, idPattern, created.ID)
		assert.Len(t, tx.ListInventoryItems(), 1)
		return nil
	})
	require.NoError(t, err)

	snapshot := store.ExportState()
	require.Len(t, snapshot.Inventory, 1)
	assert.NotNil(t, snapshot.Quotations, "exported collections are never nil")

	store.ImportState(domain.EmptySnapshot())
	assert.Empty(t, store.ExportState().Inventory)
	store.ImportState(snapshot)
	assert.Equal(t, snapshot, store.ExportState())

	assert.NotNil(t, store.RulesEngine())
	assert.Equal(t, fixedClock()(), store.NowFunc()())
}

func TestStoreKeepsInsertionOrder(t *testing.T) {
	store := NewStore(nil)
	var ids []string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for i := 0; i < 5; i++ {
			c, err := tx.CreateCustomer(domain.Customer{Name: fmt.Sprintf("c%d", i)})
			if err != nil {
				return err
			}
			ids = append(ids, c.ID)
		}
		return tx.DeleteCustomer(ids[2])
	})
	require.NoError(t, err)

	got := store.ExportState().Customers
	require.Len(t, got, 4)
	assert.Equal(t, []string{ids[0], ids[1], ids[3], ids[4]}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
}

func TestStoreFunctionErrorDiscardsChanges(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateSupplier(domain.Supplier{Name: "Glassworks"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.ExportState().Suppliers)
}

func TestStoreCommitFailureRollsBack(t *testing.T) {
	fail := false
	var committed []domain.Snapshot
	store := NewStore(nil, WithCommitHook(func(_ context.Context, s domain.Snapshot) error {
		if fail {
			return errors.New("disk full")
		}
		committed = append(committed, s)
		return nil
	}))
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateInventoryItem(domain.InventoryItem{ID: "INV-1", SKU: "A", Quantity: 5})
		return err
	})
	require.NoError(t, err)
	require.Len(t, committed, 1)

	fail = true
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateInventoryItem("INV-1", func(i *domain.InventoryItem) error {
			i.Quantity = 50
			return nil
		})
		return err
	})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "commit", perr.Op)

	item := store.ExportState().Inventory[0]
	assert.Equal(t, 5.0, item.Quantity, "in-memory state must not change when the durable write fails")
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block-all" }

func (blockingRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{Rule: "block-all", Severity: domain.SeverityBlock, Message: "no"}}}, nil
}

func TestStoreRuleViolation(t *testing.T) {
	committed := false
	store := NewStore(domain.NewRulesEngine(), WithCommitHook(func(context.Context, domain.Snapshot) error {
		committed = true
		return nil
	}))
	store.RulesEngine().Register(blockingRule{})

	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEnquiry(domain.Enquiry{CustomerName: "Fail"})
		return e
	})
	var violation domain.RuleViolationError
	require.ErrorAs(t, err, &violation)
	assert.True(t, res.HasBlocking())
	assert.False(t, committed)
	assert.Empty(t, store.ExportState().Enquiries)
}

func TestStoreUpdateAndDeleteMissing(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateSalesOrder("SO-X", func(*domain.SalesOrder) error { return nil })
		return err
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.EntitySalesOrder, nf.Entity)

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteCustomer("CUST-X")
	})
	require.ErrorAs(t, err, &nf)
}

func TestStoreUpdateKeepsIDAndRecordsChange(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	var seen []domain.Change
	store.RulesEngine().Register(recordingRule{changes: &seen})
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateEnquiry(domain.Enquiry{ID: "ENQ-1", Status: domain.EnquiryNew})
		return err
	})
	require.NoError(t, err)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err := tx.UpdateEnquiry("ENQ-1", func(e *domain.Enquiry) error {
			e.ID = "hijack"
			return e.Transition(domain.EnquiryQuoted)
		})
		assert.Equal(t, "ENQ-1", updated.ID)
		return err
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, domain.EnquiryNew, seen[0].Before.(domain.Enquiry).Status)
	assert.Equal(t, domain.EnquiryQuoted, seen[0].After.(domain.Enquiry).Status)
}

type recordingRule struct{ changes *[]domain.Change }

func (recordingRule) Name() string { return "recording" }

func (r recordingRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	*r.changes = append([]domain.Change(nil), changes...)
	return domain.Result{}, nil
}

func TestStoreDuplicateExplicitID(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateCustomer(domain.Customer{ID: "CUST-1"}); err != nil {
			return err
		}
		_, err := tx.CreateCustomer(domain.Customer{ID: "CUST-1"})
		return err
	})
	require.Error(t, err)
}

func TestStoreRedrawsOnIDCollision(t *testing.T) {
	suffixes := []string{"AAAAAAAAA", "AAAAAAAAA", "BBBBBBBBB"}
	next := 0
	store := NewStore(nil, WithIDSuffix(func() string {
		s := suffixes[next]
		next++
		return s
	}))
	var ids []string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for i := 0; i < 2; i++ {
			c, err := tx.CreateCustomer(domain.Customer{Name: "x"})
			if err != nil {
				return err
			}
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CUST-AAAAAAAAA", "CUST-BBBBBBBBB"}, ids)
}

func TestStoreClonesNestedSlices(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		q, err := tx.CreateQuotation(domain.Quotation{
			ID:    "QT-1",
			Items: []domain.QuotationItem{{Description: "W1", HardwareIDs: []string{"INV-H"}}},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, q.Items[0].ID, "quotation items receive ids")
		q.Items[0].HardwareIDs[0] = "mutated"
		return nil
	})
	require.NoError(t, err)
	got := store.ExportState().Quotations[0]
	assert.Equal(t, "INV-H", got.Items[0].HardwareIDs[0])
}

func TestStoreCatalogActivityAndHistory(t *testing.T) {
	store := NewStore(nil, WithClock(fixedClock()))
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		added := tx.AddCatalogItems([]domain.CatalogItem{{Code: "P-1"}, {Code: "p-1"}, {Code: "P-2"}})
		assert.Len(t, added, 2)
		added = tx.AddCatalogItems([]domain.CatalogItem{{Code: " P-2 "}, {Code: "P-3"}})
		assert.Len(t, added, 1)

		entry, err := tx.AppendActivity(domain.ActivityLog{Action: "Test", Details: "d"})
		require.NoError(t, err)
		assert.Equal(t, "System", entry.User)
		assert.Equal(t, "2024-05-06T10:30:00.000Z", entry.Timestamp)

		tx.ReplaceHistory([]domain.HistoryEntry{{Date: "2024-05-06", Value: 10}})
		return nil
	})
	require.NoError(t, err)

	state := store.ExportState()
	assert.Len(t, state.Catalog, 3)
	assert.Len(t, state.ActivityLog, 1)
	assert.Equal(t, []domain.HistoryEntry{{Date: "2024-05-06", Value: 10}}, state.History)
}

func TestStoreFindBySKUAndReplace(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateInventoryItem(domain.InventoryItem{ID: "INV-1", SKU: "GLS-4MM"})
		require.NoError(t, err)
		item, ok := tx.FindInventoryItemBySKU("gls-4mm ")
		assert.True(t, ok)
		assert.Equal(t, "INV-1", item.ID)
		_, ok = tx.FindInventoryItemBySKU("")
		assert.False(t, ok)

		tx.Replace(domain.Snapshot{Customers: []domain.Customer{{ID: "CUST-9"}}})
		assert.Empty(t, tx.ListInventoryItems())
		return nil
	})
	require.NoError(t, err)
	state := store.ExportState()
	assert.Empty(t, state.Inventory)
	require.Len(t, state.Customers, 1)
}

func TestStoreCancelledContext(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.RunInTransaction(ctx, func(domain.Transaction) error {
		t.Fatalf("fn must not run")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreViewIsReadOnlyCopy(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateInstallation(domain.Installation{ID: "INST-1", Team: []string{"A"}})
		return err
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(v domain.TransactionView) error {
		inst, ok := v.FindInstallation("INST-1")
		require.True(t, ok)
		inst.Team[0] = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "A", store.ExportState().Installations[0].Team[0])
	require.NoError(t, store.Purge(context.Background()))
	require.NoError(t, store.Close())
}

func TestRandomSuffixShape(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{9}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		s := RandomSuffix()
		require.Regexp(t, re, s)
		seen[s] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

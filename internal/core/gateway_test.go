package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upvcerp/internal/core"
	"upvcerp/internal/infra/persistence/memory"
	"upvcerp/pkg/domain"
)

func TestMutationsRecordDailyValuation(t *testing.T) {
	f := seeded(t)
	snap := f.snapshot(t)
	require.Len(t, snap.History, 1, "same-day mutations overwrite one entry")
	assert.Equal(t, "2024-05-06", snap.History[0].Date)
	assert.InDelta(t, 500*200+100*500+40*150, snap.History[0].Value, 1e-6)

	f.clock.Advance(24 * time.Hour)
	_, _, err := f.svc.AdjustStock(context.Background(), core.AdjustStock{ID: f.handle.ID, Delta: -10})
	require.NoError(t, err)

	snap = f.snapshot(t)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "2024-05-07", snap.History[1].Date)
	assert.InDelta(t, 156000-1500, snap.History[1].Value, 1e-6)
}

func TestSubscribersSeeCommittedSnapshotInOrder(t *testing.T) {
	f := seeded(t)
	var calls []string
	var seen domain.Snapshot
	unsubA := f.svc.Subscribe(func(s domain.Snapshot) {
		calls = append(calls, "a")
		seen = s
	})
	unsubB := f.svc.Subscribe(func(domain.Snapshot) { calls = append(calls, "b") })

	_, _, err := f.svc.CreateEnquiry(context.Background(), core.CreateEnquiry{CustomerName: "Rao"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, f.snapshot(t), seen)

	unsubA()
	unsubA()
	_, _, err = f.svc.CreateEnquiry(context.Background(), core.CreateEnquiry{CustomerName: "Rao"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b"}, calls)

	unsubB()
	_, _, err = f.svc.CreateEnquiry(context.Background(), core.CreateEnquiry{CustomerName: "Rao"})
	require.NoError(t, err)
	assert.Len(t, calls, 3)
}

func TestFailedMutationIsNotAnnounced(t *testing.T) {
	f := seeded(t)
	notified := 0
	f.svc.Subscribe(func(domain.Snapshot) { notified++ })

	_, _, err := f.svc.AdjustStock(context.Background(), core.AdjustStock{ID: f.handle.ID, Delta: -100})
	require.Error(t, err)
	assert.Zero(t, notified)
}

func TestCommitFailureLeavesStateUnchanged(t *testing.T) {
	failing := errors.New("disk full")
	fail := false
	clock := newTestClock()
	store := memory.NewStore(core.NewDefaultRulesEngine(),
		memory.WithClock(clock.Now),
		memory.WithCommitHook(func(context.Context, domain.Snapshot) error {
			if fail {
				return failing
			}
			return nil
		}))
	svc := core.NewService(core.NewGateway(store))
	ctx := context.Background()

	_, _, err := svc.CreateCustomer(ctx, core.CreateCustomer{Name: "Bose"})
	require.NoError(t, err)
	before, err := svc.Get(ctx)
	require.NoError(t, err)

	notified := 0
	svc.Subscribe(func(domain.Snapshot) { notified++ })
	fail = true
	_, _, err = svc.CreateCustomer(ctx, core.CreateCustomer{Name: "Sen"})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "commit", perr.Op)
	require.ErrorIs(t, err, failing)
	assert.Zero(t, notified)

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGetHonoursCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Get(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRestoreDataReplacesState(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	backup := f.snapshot(t)

	_, _, err := f.svc.CreateEnquiry(ctx, core.CreateEnquiry{CustomerName: "Later"})
	require.NoError(t, err)

	_, err = f.svc.RestoreData(ctx, core.RestoreData{Data: backup})
	require.NoError(t, err)

	snap := f.snapshot(t)
	assert.Empty(t, snap.Enquiries)
	assert.Equal(t, backup.Inventory, snap.Inventory)
	require.Len(t, snap.ActivityLog, len(backup.ActivityLog)+1)
	last := snap.ActivityLog[len(snap.ActivityLog)-1]
	assert.Equal(t, core.ActionDataRestore, last.Action)
	assert.Equal(t, "Application data restored from backup.", last.Details)
}

func TestRestoreAcceptsMissingCollections(t *testing.T) {
	f := seeded(t)
	_, err := f.svc.RestoreData(context.Background(), core.RestoreData{Data: domain.Snapshot{
		Customers: []domain.Customer{{ID: "CUST-OLD", Name: "Legacy"}},
	}})
	require.NoError(t, err)
	snap := f.snapshot(t)
	assert.NotNil(t, snap.Quotations)
	assert.Len(t, snap.Customers, 1)
	assert.Empty(t, snap.Inventory)
	require.Len(t, snap.History, 1)
	assert.Zero(t, snap.History[0].Value)
}

func TestResetDataStartsFromEmptySeed(t *testing.T) {
	f := seeded(t)
	_, err := f.svc.ResetData(context.Background(), core.ResetData{})
	require.NoError(t, err)

	snap := f.snapshot(t)
	assert.Empty(t, snap.Inventory)
	assert.Empty(t, snap.Suppliers)
	require.Len(t, snap.ActivityLog, 1)
	assert.Equal(t, core.ActionSystemReset, snap.ActivityLog[0].Action)
	assert.Equal(t, "All application data has been reset to default.", snap.ActivityLog[0].Details)
}

type purgeRecorder struct {
	domain.PersistentStore
	purged int
}

func (p *purgeRecorder) Purge(ctx context.Context) error {
	p.purged++
	return p.PersistentStore.Purge(ctx)
}

func TestResetCommitFailureKeepsDurableAndMemoryState(t *testing.T) {
	failing := errors.New("disk full")
	fail := false
	inner := memory.NewStore(core.NewDefaultRulesEngine(),
		memory.WithClock(newTestClock().Now),
		memory.WithCommitHook(func(context.Context, domain.Snapshot) error {
			if fail {
				return failing
			}
			return nil
		}))
	store := &purgeRecorder{PersistentStore: inner}
	svc := core.NewService(core.NewGateway(store))
	ctx := context.Background()

	_, _, err := svc.CreateEnquiry(ctx, core.CreateEnquiry{CustomerName: "Rao"})
	require.NoError(t, err)
	before, err := svc.Get(ctx)
	require.NoError(t, err)

	fail = true
	_, err = svc.ResetData(ctx, core.ResetData{})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.ErrorIs(t, err, failing)
	assert.Zero(t, store.purged, "durable copy must not be dropped ahead of the commit")

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, after.Enquiries, 1)

	fail = false
	_, err = svc.ResetData(ctx, core.ResetData{})
	require.NoError(t, err)
	after, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.Enquiries)
}

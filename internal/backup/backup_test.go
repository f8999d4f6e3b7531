package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upvcerp/internal/blob"
	"upvcerp/internal/core"
	"upvcerp/pkg/domain"
)

var backupDay = time.Date(2024, 5, 6, 10, 30, 15, 500, time.UTC)

func newManager(store blob.Store) *Manager {
	m := New(store, WithClock(func() time.Time { return backupDay }))
	m.newID = func() string { return "op-fixed" }
	return m
}

func seededService(t *testing.T) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()
	sup, _, err := svc.CreateSupplier(ctx, core.CreateSupplier{Name: "Fenesta Profiles"})
	require.NoError(t, err)
	_, _, err = svc.AddInventoryItem(ctx, core.AddInventoryItem{
		SKU: "PRF-60", Name: "60mm Frame", Category: domain.CategoryProfile,
		Quantity: 500, Unit: domain.UnitMeters, Cost: 200, SupplierID: sup.ID, ReorderLevel: 50,
	})
	require.NoError(t, err)
	return svc
}

func TestCreateNamesSameDayBackupsSequentially(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	m := newManager(store)
	svc := seededService(t)

	var keys []string
	for i := 0; i < 3; i++ {
		info, err := m.Create(ctx, svc)
		require.NoError(t, err)
		keys = append(keys, info.Key)
	}
	assert.Equal(t, []string{
		"backups/upvc-erp-backup-2024-05-06.json",
		"backups/upvc-erp-backup-2024-05-06-2.json",
		"backups/upvc-erp-backup-2024-05-06-3.json",
	}, keys)

	head, err := store.Head(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, "application/json", head.ContentType)
	assert.Equal(t, "op-fixed", head.Metadata["operation"])
	assert.Equal(t, "1", head.Metadata["version"])

	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, keys[2], latest.Key)
}

func TestEnvelopeLayout(t *testing.T) {
	raw, err := Encode(domain.Snapshot{Customers: []domain.Customer{{ID: "CUST-1", Name: "Rao"}}}, backupDay)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `1`, string(doc["version"]))
	assert.JSONEq(t, `"2024-05-06T10:30:15Z"`, string(doc["createdAt"]))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["data"], &data))
	assert.JSONEq(t, `[]`, string(data["inventory"]), "empty collections are written as arrays")
	assert.Contains(t, data, "salesOrders")
}

func TestEncodeDecodeKeepsEmptyInstallationLists(t *testing.T) {
	snap := domain.Snapshot{Installations: []domain.Installation{{
		ID: "INST-1", OrderID: "SO-1", ScheduledDate: "2024-06-01",
		Team: []string{}, Photos: []string{}, Status: domain.InstallationScheduled,
	}}}
	raw, err := Encode(snap, backupDay)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"photos": []`)

	env, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, env.Data.Installations, 1)
	got := env.Data.Installations[0]
	assert.NotNil(t, got.Photos)
	assert.Empty(t, got.Photos)
	assert.Equal(t, snap.Installations[0], got)
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newManager(blob.NewMemory())
	svc := seededService(t)

	before, err := svc.Get(ctx)
	require.NoError(t, err)
	info, err := m.Create(ctx, svc)
	require.NoError(t, err)

	_, _, err = svc.CreateCustomer(ctx, core.CreateCustomer{Name: "Added After Backup"})
	require.NoError(t, err)

	env, err := m.Restore(ctx, info.Key, svc)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, env.Version)
	assert.True(t, env.CreatedAt.Equal(backupDay.Truncate(time.Second)))

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Inventory, after.Inventory)
	assert.Equal(t, before.Suppliers, after.Suppliers)
	assert.Empty(t, after.Customers)
	require.Len(t, after.ActivityLog, len(before.ActivityLog)+1)
	assert.Equal(t, core.ActionDataRestore, after.ActivityLog[len(after.ActivityLog)-1].Action)
}

func TestRestoreAcceptsLegacyBareSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	m := newManager(store)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())

	legacy := `{"customers":[{"id":"CUST-OLD","name":"Legacy Homes"}],"inventory":[]}`
	_, err := store.Put(ctx, "backups/upvc-erp-backup-2023-12-31.json", bytes.NewReader([]byte(legacy)), blob.PutOptions{})
	require.NoError(t, err)

	env, err := m.Restore(ctx, "backups/upvc-erp-backup-2023-12-31.json", svc)
	require.NoError(t, err)
	assert.Zero(t, env.Version)
	assert.NotNil(t, env.Data.Quotations)

	snap, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Customers, 1)
	assert.Equal(t, "Legacy Homes", snap.Customers[0].Name)
}

func TestRestoreRejectsNewerFormat(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)
	before, err := svc.Get(ctx)
	require.NoError(t, err)

	_, err = RestoreFrom(ctx, bytes.NewReader([]byte(`{"version":2,"createdAt":"2030-01-01T00:00:00Z","data":{}}`)), svc)
	var unsupported *UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 2, unsupported.Version)

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRestoreFailures(t *testing.T) {
	ctx := context.Background()
	m := newManager(blob.NewMemory())
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())

	_, err := m.Restore(ctx, "backups/none.json", svc)
	require.ErrorIs(t, err, blob.ErrNotFound)

	_, err = RestoreFrom(ctx, bytes.NewReader([]byte(`[1,2]`)), svc)
	require.Error(t, err)

	_, err = m.Latest(ctx)
	require.ErrorIs(t, err, blob.ErrNotFound)
}

type failingSource struct{}

func (failingSource) Get(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, errors.New("store offline")
}

func TestCreateSurfacesSourceError(t *testing.T) {
	m := newManager(blob.NewMemory())
	_, err := m.Create(context.Background(), failingSource{})
	require.ErrorContains(t, err, "store offline")
}

func TestListOrdersBySequence(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	for _, k := range []string{
		"backups/upvc-erp-backup-2024-05-06-10.json",
		"backups/upvc-erp-backup-2024-05-06-9.json",
		"backups/upvc-erp-backup-2024-05-07.json",
		"backups/upvc-erp-backup-2024-05-06.json",
		"backups/unrelated.json",
	} {
		_, err := store.Put(ctx, k, bytes.NewReader([]byte("{}")), blob.PutOptions{})
		require.NoError(t, err)
	}
	infos, err := newManager(store).List(ctx)
	require.NoError(t, err)
	var keys []string
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	assert.Equal(t, []string{
		"backups/upvc-erp-backup-2024-05-06.json",
		"backups/upvc-erp-backup-2024-05-06-9.json",
		"backups/upvc-erp-backup-2024-05-06-10.json",
		"backups/upvc-erp-backup-2024-05-07.json",
	}, keys)
}

func TestBackupThroughS3Driver(t *testing.T) {
	ctx := context.Background()
	m := newManager(blob.NewMockS3ForTests())
	svc := seededService(t)

	info, err := m.Create(ctx, svc)
	require.NoError(t, err)
	second, err := m.Create(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, "backups/upvc-erp-backup-2024-05-06-2.json", second.Key)

	env, err := m.Load(ctx, info.Key)
	require.NoError(t, err)
	assert.Len(t, env.Data.Inventory, 1)
}

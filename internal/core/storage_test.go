package core_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upvcerp/internal/config"
	"upvcerp/internal/core"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := core.OpenPersistentStore(config.StorageConfig{Driver: "memory"}, core.NewDefaultRulesEngine())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := core.NewService(core.NewGateway(store))
	_, _, err = svc.CreateEnquiry(context.Background(), core.CreateEnquiry{CustomerName: "Nair"})
	require.NoError(t, err)
	assert.Len(t, store.ExportState().Enquiries, 1)
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "erp.db")
	cfg := config.StorageConfig{SQLitePath: path}

	store, err := core.OpenPersistentStore(cfg, core.NewDefaultRulesEngine())
	require.NoError(t, err)
	svc := core.NewService(core.NewGateway(store))
	_, _, err = svc.CreateCustomer(context.Background(), core.CreateCustomer{Name: "Das"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := core.OpenPersistentStore(cfg, core.NewDefaultRulesEngine())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	snap := reopened.ExportState()
	require.Len(t, snap.Customers, 1)
	assert.Equal(t, "Das", snap.Customers[0].Name)
	assert.Len(t, snap.ActivityLog, 1)
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	_, err := core.OpenPersistentStore(config.StorageConfig{Driver: "mongo"}, core.NewDefaultRulesEngine())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"upvcerp/internal/core"
	"upvcerp/internal/infra/persistence/memory"
	"upvcerp/pkg/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc   *core.Service
	store *memory.Store
	clock *testClock

	supplier domain.Supplier
	profile  domain.InventoryItem
	glass    domain.InventoryItem
	handle   domain.InventoryItem
}

func newFixture(t *testing.T, opts ...core.Option) *fixture {
	t.Helper()
	clock := newTestClock()
	store := memory.NewStore(core.NewDefaultRulesEngine(), memory.WithClock(clock.Now))
	return &fixture{
		svc:   core.NewService(core.NewGateway(store), opts...),
		store: store,
		clock: clock,
	}
}

// seeded returns a fixture holding a supplier and the profile, glass and
// hardware items used by the costing scenarios.
func seeded(t *testing.T, opts ...core.Option) *fixture {
	t.Helper()
	f := newFixture(t, opts...)
	ctx := context.Background()
	var err error
	f.supplier, _, err = f.svc.CreateSupplier(ctx, core.CreateSupplier{Name: "Fenesta Profiles", Phone: "9876543210"})
	require.NoError(t, err)
	f.profile = f.addItem(t, core.AddInventoryItem{
		SKU: "PRF-60", Name: "60mm Frame", Category: domain.CategoryProfile, Quantity: 500,
		Unit: domain.UnitMeters, Cost: 200, SupplierID: f.supplier.ID, ReorderLevel: 50, Color: "White",
	})
	f.glass = f.addItem(t, core.AddInventoryItem{
		SKU: "GLS-5", Name: "5mm Clear", Category: domain.CategoryGlass, Quantity: 100,
		Unit: domain.UnitSquareMeters, Cost: 500, SupplierID: f.supplier.ID, ReorderLevel: 10,
	})
	f.handle = f.addItem(t, core.AddInventoryItem{
		SKU: "HW-H1", Name: "Espag Handle", Category: domain.CategoryHardware, Quantity: 40,
		Unit: domain.UnitPieces, Cost: 150, SupplierID: f.supplier.ID, ReorderLevel: 5,
	})
	return f
}

func (f *fixture) addItem(t *testing.T, cmd core.AddInventoryItem) domain.InventoryItem {
	t.Helper()
	item, _, err := f.svc.AddInventoryItem(context.Background(), cmd)
	require.NoError(t, err)
	return item
}

func (f *fixture) line(width, height, qty float64, hardware ...string) core.QuotationLine {
	return core.QuotationLine{
		Description: "Casement window",
		Width:       width,
		Height:      height,
		ProfileID:   f.profile.ID,
		GlassID:     f.glass.ID,
		HardwareIDs: hardware,
		Quantity:    qty,
	}
}

// quote creates an enquiry and a quotation for it.
func (f *fixture) quote(t *testing.T, lines ...core.QuotationLine) (domain.Enquiry, domain.Quotation) {
	t.Helper()
	ctx := context.Background()
	enq, _, err := f.svc.CreateEnquiry(ctx, core.CreateEnquiry{CustomerName: "Sharma Residence", Contact: "9876543210"})
	require.NoError(t, err)
	q, _, err := f.svc.CreateQuotation(ctx, core.CreateQuotation{EnquiryID: enq.ID, Items: lines})
	require.NoError(t, err)
	return enq, q
}

// order runs a quotation through approval and returns the raised order.
func (f *fixture) order(t *testing.T) domain.SalesOrder {
	t.Helper()
	_, q := f.quote(t, f.line(1000, 1200, 1))
	order, _, err := f.svc.ApproveQuotation(context.Background(), core.ApproveQuotation{ID: q.ID})
	require.NoError(t, err)
	return order
}

func (f *fixture) snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	snap, err := f.svc.Get(context.Background())
	require.NoError(t, err)
	return snap
}

func (f *fixture) item(t *testing.T, id string) domain.InventoryItem {
	t.Helper()
	for _, it := range f.snapshot(t).Inventory {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("inventory item %s not found", id)
	return domain.InventoryItem{}
}

func actions(entries []domain.ActivityLog) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

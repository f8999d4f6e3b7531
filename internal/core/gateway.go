package core

import (
	"context"
	"sync"

	"upvcerp/internal/valuation"
	"upvcerp/pkg/domain"
)

// Gateway is the single write path to the store. Every mutation records the
// day's valuation in the same transaction, is committed durably as one
// snapshot, and is then announced to subscribers.
type Gateway struct {
	store PersistentStore

	mu     sync.Mutex
	subs   map[uint64]func(Snapshot)
	order  []uint64
	nextID uint64
}

// NewGateway wraps store.
func NewGateway(store PersistentStore) *Gateway {
	return &Gateway{store: store, subs: make(map[uint64]func(Snapshot))}
}

// Store returns the underlying persistent store.
func (g *Gateway) Store() PersistentStore { return g.store }

// Get returns a point-in-time copy of the full state.
func (g *Gateway) Get(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return g.store.ExportState(), nil
}

// View runs fn against a read-only copy of the state.
func (g *Gateway) View(ctx context.Context, fn func(TransactionView) error) error {
	return g.store.View(ctx, fn)
}

// Mutate runs fn in one transaction, records today's valuation, commits and
// notifies subscribers with the committed snapshot. Nothing is applied or
// announced when fn, a blocking rule or the durable write fails.
func (g *Gateway) Mutate(ctx context.Context, fn func(Transaction) error) (Result, error) {
	var committed Snapshot
	res, err := g.store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := fn(tx); err != nil {
			return err
		}
		RecordValuation(tx)
		committed = SnapshotOf(tx)
		return nil
	})
	if err != nil {
		return res, err
	}
	g.notify(committed)
	return res, nil
}

// Load swaps the whole state for snapshot. annotate, when set, runs after the
// swap inside the same transaction.
func (g *Gateway) Load(ctx context.Context, snapshot Snapshot, annotate func(Transaction) error) (Result, error) {
	return g.Mutate(ctx, func(tx Transaction) error {
		tx.Replace(snapshot.Normalized())
		if annotate != nil {
			return annotate(tx)
		}
		return nil
	})
}

// Reset replaces the state with the empty seed. The seed's commit overwrites
// the durable copy, so a failed commit leaves both copies on the old state.
func (g *Gateway) Reset(ctx context.Context, annotate func(Transaction) error) (Result, error) {
	return g.Load(ctx, domain.EmptySnapshot(), annotate)
}

// Subscribe registers fn to receive every committed snapshot. The returned
// function removes the subscription and may be called more than once.
// Delivery happens outside the store lock, so concurrent writers may see
// notifications out of commit order.
func (g *Gateway) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := g.nextID
	g.subs[id] = fn
	g.order = append(g.order, id)
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if _, ok := g.subs[id]; !ok {
			return
		}
		delete(g.subs, id)
		for i, v := range g.order {
			if v == id {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	}
}

func (g *Gateway) notify(snapshot Snapshot) {
	g.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(g.order))
	for _, id := range g.order {
		listeners = append(listeners, g.subs[id])
	}
	g.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// RecordValuation stores the current inventory value as today's history entry.
func RecordValuation(tx Transaction) {
	value := valuation.TotalValue(tx.ListInventoryItems())
	tx.ReplaceHistory(valuation.Record(tx.History(), value, today(tx)))
}

// SnapshotOf copies every collection visible through view.
func SnapshotOf(view TransactionView) Snapshot {
	return domain.Snapshot{
		Enquiries:      view.ListEnquiries(),
		Quotations:     view.ListQuotations(),
		SalesOrders:    view.ListSalesOrders(),
		Customers:      view.ListCustomers(),
		Suppliers:      view.ListSuppliers(),
		Inventory:      view.ListInventoryItems(),
		PurchaseOrders: view.ListPurchaseOrders(),
		ProductionJobs: view.ListProductionJobs(),
		Dispatches:     view.ListDispatches(),
		Installations:  view.ListInstallations(),
		WarrantyClaims: view.ListWarrantyClaims(),
		ActivityLog:    view.ListActivity(),
		History:        view.History(),
		Catalog:        view.ListCatalog(),
	}.Normalized()
}

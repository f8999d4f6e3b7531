package memory

import "upvcerp/pkg/domain"

// collection keeps records by id while remembering insertion order, which is
// the order list operations and the persisted snapshot expose.
type collection[T any] struct {
	order []string
	items map[string]T
}

func newCollection[T any]() collection[T] {
	return collection[T]{items: make(map[string]T)}
}

func collectionFrom[T any](values []T, id func(*T) *string, clone func(T) T) collection[T] {
	c := newCollection[T]()
	for _, v := range values {
		c.put(*id(&v), clone(v))
	}
	return c
}

func (c collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c collection[T]) has(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *collection[T]) put(id string, v T) {
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c collection[T]) values(clone func(T) T) []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.items[id]))
	}
	return out
}

func (c collection[T]) clone(fn func(T) T) collection[T] {
	cp := collection[T]{
		order: append([]string(nil), c.order...),
		items: make(map[string]T, len(c.items)),
	}
	for id, v := range c.items {
		cp.items[id] = fn(v)
	}
	return cp
}

type memoryState struct {
	customers      collection[domain.Customer]
	suppliers      collection[domain.Supplier]
	inventory      collection[domain.InventoryItem]
	enquiries      collection[domain.Enquiry]
	quotations     collection[domain.Quotation]
	salesOrders    collection[domain.SalesOrder]
	purchaseOrders collection[domain.PurchaseOrder]
	productionJobs collection[domain.ProductionJob]
	dispatches     collection[domain.Dispatch]
	installations  collection[domain.Installation]
	warrantyClaims collection[domain.WarrantyClaim]
	catalog        []domain.CatalogItem
	activity       []domain.ActivityLog
	history        []domain.HistoryEntry
}

func newMemoryState() memoryState {
	return memoryState{
		customers:      newCollection[domain.Customer](),
		suppliers:      newCollection[domain.Supplier](),
		inventory:      newCollection[domain.InventoryItem](),
		enquiries:      newCollection[domain.Enquiry](),
		quotations:     newCollection[domain.Quotation](),
		salesOrders:    newCollection[domain.SalesOrder](),
		purchaseOrders: newCollection[domain.PurchaseOrder](),
		productionJobs: newCollection[domain.ProductionJob](),
		dispatches:     newCollection[domain.Dispatch](),
		installations:  newCollection[domain.Installation](),
		warrantyClaims: newCollection[domain.WarrantyClaim](),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		customers:      s.customers.clone(customers.clone),
		suppliers:      s.suppliers.clone(suppliers.clone),
		inventory:      s.inventory.clone(inventory.clone),
		enquiries:      s.enquiries.clone(enquiries.clone),
		quotations:     s.quotations.clone(quotations.clone),
		salesOrders:    s.salesOrders.clone(salesOrders.clone),
		purchaseOrders: s.purchaseOrders.clone(purchaseOrders.clone),
		productionJobs: s.productionJobs.clone(productionJobs.clone),
		dispatches:     s.dispatches.clone(dispatches.clone),
		installations:  s.installations.clone(installations.clone),
		warrantyClaims: s.warrantyClaims.clone(warrantyClaims.clone),
		catalog:        cloneSlice(s.catalog),
		activity:       cloneSlice(s.activity),
		history:        cloneSlice(s.history),
	}
}

func snapshotFromMemoryState(state memoryState) domain.Snapshot {
	return domain.Snapshot{
		Customers:      state.customers.values(customers.clone),
		Suppliers:      state.suppliers.values(suppliers.clone),
		Inventory:      state.inventory.values(inventory.clone),
		Enquiries:      state.enquiries.values(enquiries.clone),
		Quotations:     state.quotations.values(quotations.clone),
		SalesOrders:    state.salesOrders.values(salesOrders.clone),
		PurchaseOrders: state.purchaseOrders.values(purchaseOrders.clone),
		ProductionJobs: state.productionJobs.values(productionJobs.clone),
		Dispatches:     state.dispatches.values(dispatches.clone),
		Installations:  state.installations.values(installations.clone),
		WarrantyClaims: state.warrantyClaims.values(warrantyClaims.clone),
		Catalog:        cloneSlice(state.catalog),
		ActivityLog:    cloneSlice(state.activity),
		History:        cloneSlice(state.history),
	}.Normalized()
}

func memoryStateFromSnapshot(snapshot domain.Snapshot) memoryState {
	return memoryState{
		customers:      collectionFrom(snapshot.Customers, customers.id, customers.clone),
		suppliers:      collectionFrom(snapshot.Suppliers, suppliers.id, suppliers.clone),
		inventory:      collectionFrom(snapshot.Inventory, inventory.id, inventory.clone),
		enquiries:      collectionFrom(snapshot.Enquiries, enquiries.id, enquiries.clone),
		quotations:     collectionFrom(snapshot.Quotations, quotations.id, quotations.clone),
		salesOrders:    collectionFrom(snapshot.SalesOrders, salesOrders.id, salesOrders.clone),
		purchaseOrders: collectionFrom(snapshot.PurchaseOrders, purchaseOrders.id, purchaseOrders.clone),
		productionJobs: collectionFrom(snapshot.ProductionJobs, productionJobs.id, productionJobs.clone),
		dispatches:     collectionFrom(snapshot.Dispatches, dispatches.id, dispatches.clone),
		installations:  collectionFrom(snapshot.Installations, installations.id, installations.clone),
		warrantyClaims: collectionFrom(snapshot.WarrantyClaims, warrantyClaims.id, warrantyClaims.clone),
		catalog:        cloneSlice(snapshot.Catalog),
		activity:       cloneSlice(snapshot.ActivityLog),
		history:        cloneSlice(snapshot.History),
	}
}

// cloneSlice copies a slice of value types, keeping nil and empty distinct.
func cloneSlice[T any](values []T) []T {
	if values == nil {
		return nil
	}
	return append(make([]T, 0, len(values)), values...)
}

func identity[T any](v T) T { return v }

func cloneQuotationItems(items []domain.QuotationItem) []domain.QuotationItem {
	if items == nil {
		return nil
	}
	out := make([]domain.QuotationItem, len(items))
	for i, item := range items {
		item.HardwareIDs = cloneSlice(item.HardwareIDs)
		out[i] = item
	}
	return out
}

func cloneQuotation(q domain.Quotation) domain.Quotation {
	q.Items = cloneQuotationItems(q.Items)
	return q
}

func cloneSalesOrder(o domain.SalesOrder) domain.SalesOrder {
	o.Items = cloneQuotationItems(o.Items)
	return o
}

func clonePurchaseOrder(p domain.PurchaseOrder) domain.PurchaseOrder {
	p.Items = cloneSlice(p.Items)
	return p
}

func cloneInstallation(i domain.Installation) domain.Installation {
	i.Team = cloneSlice(i.Team)
	i.Photos = cloneSlice(i.Photos)
	return i
}

func cloneWarrantyClaim(w domain.WarrantyClaim) domain.WarrantyClaim {
	if w.ServiceVisits == nil {
		return w
	}
	visits := make([]domain.ServiceVisit, len(w.ServiceVisits))
	for i, v := range w.ServiceVisits {
		v.MaterialsUsed = cloneSlice(v.MaterialsUsed)
		visits[i] = v
	}
	w.ServiceVisits = visits
	return w
}

package memory

import (
	"strings"
	"time"

	"upvcerp/pkg/domain"
)

type transaction struct {
	store   *Store
	state   memoryState
	changes []domain.Change
	now     time.Time
}

// transactionView exposes a read-only view over a state copy to rules and View callers.
type transactionView struct {
	state *memoryState
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return transactionView{state: &tx.state}
}

func (tx *transaction) Now() time.Time { return tx.now }

func (tx *transaction) NewID(prefix string) string {
	return prefix + "-" + tx.store.suffixFn()
}

func (tx *transaction) newUniqueID(prefix string, taken func(string) bool) string {
	for {
		id := tx.NewID(prefix)
		if !taken(id) {
			return id
		}
	}
}

func (tx *transaction) view() transactionView { return transactionView{state: &tx.state} }

func (tx *transaction) ListCustomers() []domain.Customer { return tx.view().ListCustomers() }
func (tx *transaction) FindCustomer(id string) (domain.Customer, bool) {
	return tx.view().FindCustomer(id)
}
func (tx *transaction) ListSuppliers() []domain.Supplier { return tx.view().ListSuppliers() }
func (tx *transaction) FindSupplier(id string) (domain.Supplier, bool) {
	return tx.view().FindSupplier(id)
}
func (tx *transaction) ListInventoryItems() []domain.InventoryItem {
	return tx.view().ListInventoryItems()
}
func (tx *transaction) FindInventoryItem(id string) (domain.InventoryItem, bool) {
	return tx.view().FindInventoryItem(id)
}
func (tx *transaction) FindInventoryItemBySKU(sku string) (domain.InventoryItem, bool) {
	return tx.view().FindInventoryItemBySKU(sku)
}
func (tx *transaction) ListCatalog() []domain.CatalogItem { return tx.view().ListCatalog() }
func (tx *transaction) ListEnquiries() []domain.Enquiry  { return tx.view().ListEnquiries() }
func (tx *transaction) FindEnquiry(id string) (domain.Enquiry, bool) {
	return tx.view().FindEnquiry(id)
}
func (tx *transaction) ListQuotations() []domain.Quotation { return tx.view().ListQuotations() }
func (tx *transaction) FindQuotation(id string) (domain.Quotation, bool) {
	return tx.view().FindQuotation(id)
}
func (tx *transaction) ListSalesOrders() []domain.SalesOrder { return tx.view().ListSalesOrders() }
func (tx *transaction) FindSalesOrder(id string) (domain.SalesOrder, bool) {
	return tx.view().FindSalesOrder(id)
}
func (tx *transaction) ListPurchaseOrders() []domain.PurchaseOrder {
	return tx.view().ListPurchaseOrders()
}
func (tx *transaction) FindPurchaseOrder(id string) (domain.PurchaseOrder, bool) {
	return tx.view().FindPurchaseOrder(id)
}
func (tx *transaction) ListProductionJobs() []domain.ProductionJob {
	return tx.view().ListProductionJobs()
}
func (tx *transaction) FindProductionJob(id string) (domain.ProductionJob, bool) {
	return tx.view().FindProductionJob(id)
}
func (tx *transaction) ListDispatches() []domain.Dispatch { return tx.view().ListDispatches() }
func (tx *transaction) FindDispatch(id string) (domain.Dispatch, bool) {
	return tx.view().FindDispatch(id)
}
func (tx *transaction) ListInstallations() []domain.Installation {
	return tx.view().ListInstallations()
}
func (tx *transaction) FindInstallation(id string) (domain.Installation, bool) {
	return tx.view().FindInstallation(id)
}
func (tx *transaction) ListWarrantyClaims() []domain.WarrantyClaim {
	return tx.view().ListWarrantyClaims()
}
func (tx *transaction) FindWarrantyClaim(id string) (domain.WarrantyClaim, bool) {
	return tx.view().FindWarrantyClaim(id)
}
func (tx *transaction) ListActivity() []domain.ActivityLog { return tx.view().ListActivity() }
func (tx *transaction) History() []domain.HistoryEntry     { return tx.view().History() }

func (tx *transaction) CreateCustomer(c domain.Customer) (domain.Customer, error) {
	return customers.create(tx, c)
}

func (tx *transaction) UpdateCustomer(id string, mutator func(*domain.Customer) error) (domain.Customer, error) {
	return customers.update(tx, id, mutator)
}

func (tx *transaction) DeleteCustomer(id string) error { return customers.remove(tx, id) }

func (tx *transaction) CreateSupplier(s domain.Supplier) (domain.Supplier, error) {
	return suppliers.create(tx, s)
}

func (tx *transaction) UpdateSupplier(id string, mutator func(*domain.Supplier) error) (domain.Supplier, error) {
	return suppliers.update(tx, id, mutator)
}

func (tx *transaction) DeleteSupplier(id string) error { return suppliers.remove(tx, id) }

func (tx *transaction) CreateInventoryItem(item domain.InventoryItem) (domain.InventoryItem, error) {
	return inventory.create(tx, item)
}

func (tx *transaction) UpdateInventoryItem(id string, mutator func(*domain.InventoryItem) error) (domain.InventoryItem, error) {
	return inventory.update(tx, id, mutator)
}

func (tx *transaction) DeleteInventoryItem(id string) error { return inventory.remove(tx, id) }

func (tx *transaction) CreateEnquiry(e domain.Enquiry) (domain.Enquiry, error) {
	return enquiries.create(tx, e)
}

func (tx *transaction) UpdateEnquiry(id string, mutator func(*domain.Enquiry) error) (domain.Enquiry, error) {
	return enquiries.update(tx, id, mutator)
}

func (tx *transaction) CreateQuotation(q domain.Quotation) (domain.Quotation, error) {
	for i := range q.Items {
		if q.Items[i].ID == "" {
			q.Items[i].ID = tx.NewID(domain.PrefixQuotationItem)
		}
	}
	return quotations.create(tx, q)
}

func (tx *transaction) UpdateQuotation(id string, mutator func(*domain.Quotation) error) (domain.Quotation, error) {
	return quotations.update(tx, id, mutator)
}

func (tx *transaction) CreateSalesOrder(o domain.SalesOrder) (domain.SalesOrder, error) {
	return salesOrders.create(tx, o)
}

func (tx *transaction) UpdateSalesOrder(id string, mutator func(*domain.SalesOrder) error) (domain.SalesOrder, error) {
	return salesOrders.update(tx, id, mutator)
}

func (tx *transaction) CreatePurchaseOrder(p domain.PurchaseOrder) (domain.PurchaseOrder, error) {
	return purchaseOrders.create(tx, p)
}

func (tx *transaction) UpdatePurchaseOrder(id string, mutator func(*domain.PurchaseOrder) error) (domain.PurchaseOrder, error) {
	return purchaseOrders.update(tx, id, mutator)
}

func (tx *transaction) CreateProductionJob(j domain.ProductionJob) (domain.ProductionJob, error) {
	return productionJobs.create(tx, j)
}

func (tx *transaction) UpdateProductionJob(id string, mutator func(*domain.ProductionJob) error) (domain.ProductionJob, error) {
	return productionJobs.update(tx, id, mutator)
}

func (tx *transaction) CreateDispatch(d domain.Dispatch) (domain.Dispatch, error) {
	return dispatches.create(tx, d)
}

func (tx *transaction) UpdateDispatch(id string, mutator func(*domain.Dispatch) error) (domain.Dispatch, error) {
	return dispatches.update(tx, id, mutator)
}

func (tx *transaction) CreateInstallation(i domain.Installation) (domain.Installation, error) {
	return installations.create(tx, i)
}

func (tx *transaction) UpdateInstallation(id string, mutator func(*domain.Installation) error) (domain.Installation, error) {
	return installations.update(tx, id, mutator)
}

func (tx *transaction) CreateWarrantyClaim(w domain.WarrantyClaim) (domain.WarrantyClaim, error) {
	for i := range w.ServiceVisits {
		if w.ServiceVisits[i].ID == "" {
			w.ServiceVisits[i].ID = tx.NewID(domain.PrefixServiceVisit)
		}
	}
	return warrantyClaims.create(tx, w)
}

func (tx *transaction) UpdateWarrantyClaim(id string, mutator func(*domain.WarrantyClaim) error) (domain.WarrantyClaim, error) {
	return warrantyClaims.update(tx, id, mutator)
}

func (tx *transaction) AddCatalogItems(items []domain.CatalogItem) []domain.CatalogItem {
	seen := make(map[string]struct{}, len(tx.state.catalog)+len(items))
	for _, existing := range tx.state.catalog {
		seen[catalogKey(existing.Code)] = struct{}{}
	}
	var added []domain.CatalogItem
	for _, item := range items {
		key := catalogKey(item.Code)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tx.state.catalog = append(tx.state.catalog, item)
		added = append(added, item)
		tx.recordChange(domain.Change{Entity: domain.EntityCatalogItem, Action: domain.ActionCreate, After: item})
	}
	return added
}

func catalogKey(code string) string { return strings.ToLower(strings.TrimSpace(code)) }

func (tx *transaction) AppendActivity(entry domain.ActivityLog) (domain.ActivityLog, error) {
	if entry.ID == "" {
		entry.ID = tx.NewID(domain.PrefixActivityLog)
	}
	if entry.Timestamp == "" {
		entry.Timestamp = tx.now.UTC().Format(domain.TimestampLayout)
	}
	if entry.User == "" {
		entry.User = "System"
	}
	tx.state.activity = append(tx.state.activity, entry)
	tx.recordChange(domain.Change{Entity: domain.EntityActivityLog, Action: domain.ActionCreate, After: entry})
	return entry, nil
}

func (tx *transaction) ReplaceHistory(entries []domain.HistoryEntry) {
	before := cloneSlice(tx.state.history)
	tx.state.history = cloneSlice(entries)
	tx.recordChange(domain.Change{Entity: domain.EntityHistoryEntry, Action: domain.ActionUpdate, Before: before, After: cloneSlice(entries)})
}

// Replace swaps the whole state. It records no per-entity changes: a restored
// snapshot is taken as-is and not re-validated against lifecycle rules.
func (tx *transaction) Replace(snapshot domain.Snapshot) {
	tx.state = memoryStateFromSnapshot(snapshot)
}

func (v transactionView) ListCustomers() []domain.Customer { return customers.list(v.state) }
func (v transactionView) FindCustomer(id string) (domain.Customer, bool) {
	return customers.find(v.state, id)
}
func (v transactionView) ListSuppliers() []domain.Supplier { return suppliers.list(v.state) }
func (v transactionView) FindSupplier(id string) (domain.Supplier, bool) {
	return suppliers.find(v.state, id)
}
func (v transactionView) ListInventoryItems() []domain.InventoryItem { return inventory.list(v.state) }
func (v transactionView) FindInventoryItem(id string) (domain.InventoryItem, bool) {
	return inventory.find(v.state, id)
}

// FindInventoryItemBySKU matches SKUs case-insensitively, ignoring surrounding spaces.
func (v transactionView) FindInventoryItemBySKU(sku string) (domain.InventoryItem, bool) {
	want := strings.TrimSpace(sku)
	if want == "" {
		return domain.InventoryItem{}, false
	}
	for _, id := range v.state.inventory.order {
		item := v.state.inventory.items[id]
		if strings.EqualFold(strings.TrimSpace(item.SKU), want) {
			return item, true
		}
	}
	return domain.InventoryItem{}, false
}

func (v transactionView) ListCatalog() []domain.CatalogItem {
	return append([]domain.CatalogItem{}, v.state.catalog...)
}
func (v transactionView) ListEnquiries() []domain.Enquiry { return enquiries.list(v.state) }
func (v transactionView) FindEnquiry(id string) (domain.Enquiry, bool) {
	return enquiries.find(v.state, id)
}
func (v transactionView) ListQuotations() []domain.Quotation { return quotations.list(v.state) }
func (v transactionView) FindQuotation(id string) (domain.Quotation, bool) {
	return quotations.find(v.state, id)
}
func (v transactionView) ListSalesOrders() []domain.SalesOrder { return salesOrders.list(v.state) }
func (v transactionView) FindSalesOrder(id string) (domain.SalesOrder, bool) {
	return salesOrders.find(v.state, id)
}
func (v transactionView) ListPurchaseOrders() []domain.PurchaseOrder {
	return purchaseOrders.list(v.state)
}
func (v transactionView) FindPurchaseOrder(id string) (domain.PurchaseOrder, bool) {
	return purchaseOrders.find(v.state, id)
}
func (v transactionView) ListProductionJobs() []domain.ProductionJob {
	return productionJobs.list(v.state)
}
func (v transactionView) FindProductionJob(id string) (domain.ProductionJob, bool) {
	return productionJobs.find(v.state, id)
}
func (v transactionView) ListDispatches() []domain.Dispatch { return dispatches.list(v.state) }
func (v transactionView) FindDispatch(id string) (domain.Dispatch, bool) {
	return dispatches.find(v.state, id)
}
func (v transactionView) ListInstallations() []domain.Installation {
	return installations.list(v.state)
}
func (v transactionView) FindInstallation(id string) (domain.Installation, bool) {
	return installations.find(v.state, id)
}
func (v transactionView) ListWarrantyClaims() []domain.WarrantyClaim {
	return warrantyClaims.list(v.state)
}
func (v transactionView) FindWarrantyClaim(id string) (domain.WarrantyClaim, bool) {
	return warrantyClaims.find(v.state, id)
}
func (v transactionView) ListActivity() []domain.ActivityLog {
	return append([]domain.ActivityLog{}, v.state.activity...)
}
func (v transactionView) History() []domain.HistoryEntry {
	return append([]domain.HistoryEntry{}, v.state.history...)
}

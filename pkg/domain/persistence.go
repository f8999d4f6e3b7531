package domain

import (
	"context"
	"time"
)

// TransactionView provides read-only access to a consistent copy of the store.
// List methods return records in insertion order.
type TransactionView interface {
	ListCustomers() []Customer
	FindCustomer(id string) (Customer, bool)
	ListSuppliers() []Supplier
	FindSupplier(id string) (Supplier, bool)
	ListInventoryItems() []InventoryItem
	FindInventoryItem(id string) (InventoryItem, bool)
	FindInventoryItemBySKU(sku string) (InventoryItem, bool)
	ListCatalog() []CatalogItem
	ListEnquiries() []Enquiry
	FindEnquiry(id string) (Enquiry, bool)
	ListQuotations() []Quotation
	FindQuotation(id string) (Quotation, bool)
	ListSalesOrders() []SalesOrder
	FindSalesOrder(id string) (SalesOrder, bool)
	ListPurchaseOrders() []PurchaseOrder
	FindPurchaseOrder(id string) (PurchaseOrder, bool)
	ListProductionJobs() []ProductionJob
	FindProductionJob(id string) (ProductionJob, bool)
	ListDispatches() []Dispatch
	FindDispatch(id string) (Dispatch, bool)
	ListInstallations() []Installation
	FindInstallation(id string) (Installation, bool)
	ListWarrantyClaims() []WarrantyClaim
	FindWarrantyClaim(id string) (WarrantyClaim, bool)
	ListActivity() []ActivityLog
	History() []HistoryEntry
}

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Update methods receive a copy of the current record;
// the returned value is what was stored. Unknown ids yield *NotFoundError.
type Transaction interface {
	TransactionView
	Now() time.Time
	NewID(prefix string) string

	CreateCustomer(Customer) (Customer, error)
	UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error)
	DeleteCustomer(id string) error
	CreateSupplier(Supplier) (Supplier, error)
	UpdateSupplier(id string, mutator func(*Supplier) error) (Supplier, error)
	DeleteSupplier(id string) error
	CreateInventoryItem(InventoryItem) (InventoryItem, error)
	UpdateInventoryItem(id string, mutator func(*InventoryItem) error) (InventoryItem, error)
	DeleteInventoryItem(id string) error
	CreateEnquiry(Enquiry) (Enquiry, error)
	UpdateEnquiry(id string, mutator func(*Enquiry) error) (Enquiry, error)
	CreateQuotation(Quotation) (Quotation, error)
	UpdateQuotation(id string, mutator func(*Quotation) error) (Quotation, error)
	CreateSalesOrder(SalesOrder) (SalesOrder, error)
	UpdateSalesOrder(id string, mutator func(*SalesOrder) error) (SalesOrder, error)
	CreatePurchaseOrder(PurchaseOrder) (PurchaseOrder, error)
	UpdatePurchaseOrder(id string, mutator func(*PurchaseOrder) error) (PurchaseOrder, error)
	CreateProductionJob(ProductionJob) (ProductionJob, error)
	UpdateProductionJob(id string, mutator func(*ProductionJob) error) (ProductionJob, error)
	CreateDispatch(Dispatch) (Dispatch, error)
	UpdateDispatch(id string, mutator func(*Dispatch) error) (Dispatch, error)
	CreateInstallation(Installation) (Installation, error)
	UpdateInstallation(id string, mutator func(*Installation) error) (Installation, error)
	CreateWarrantyClaim(WarrantyClaim) (WarrantyClaim, error)
	UpdateWarrantyClaim(id string, mutator func(*WarrantyClaim) error) (WarrantyClaim, error)

	// AddCatalogItems appends items whose code is not already present
	// (case-insensitive) and returns the ones that were added.
	AddCatalogItems(items []CatalogItem) []CatalogItem
	AppendActivity(entry ActivityLog) (ActivityLog, error)
	ReplaceHistory(entries []HistoryEntry)
	// Replace swaps the whole state for snapshot.
	Replace(snapshot Snapshot)
}

// PersistentStore is the Entity Store contract shared by the memory, sqlite and
// postgres backends. RunInTransaction commits durably before the new state
// becomes visible; a failed durable write returns *PersistenceError and leaves
// the previous state in place.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	// Purge removes the durable copy without touching in-memory state.
	Purge(ctx context.Context) error
	Close() error
}

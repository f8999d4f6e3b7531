package domain

// StorageKey is the single well-known key the snapshot is stored under.
const StorageKey = "upvc-erp-db"

// Snapshot is the complete persisted state, keyed by collection name.
type Snapshot struct {
	Enquiries      []Enquiry       `json:"enquiries"`
	Quotations     []Quotation     `json:"quotations"`
	SalesOrders    []SalesOrder    `json:"salesOrders"`
	Customers      []Customer      `json:"customers"`
	Suppliers      []Supplier      `json:"suppliers"`
	Inventory      []InventoryItem `json:"inventory"`
	PurchaseOrders []PurchaseOrder `json:"purchaseOrders"`
	ProductionJobs []ProductionJob `json:"productionJobs"`
	Dispatches     []Dispatch      `json:"dispatches"`
	Installations  []Installation  `json:"installations"`
	WarrantyClaims []WarrantyClaim `json:"warrantyClaims"`
	ActivityLog    []ActivityLog   `json:"activityLog"`
	History        []HistoryEntry  `json:"history"`
	Catalog        []CatalogItem   `json:"catalog"`
}

// EmptySnapshot returns the empty seed with every collection present.
func EmptySnapshot() Snapshot {
	return Snapshot{}.Normalized()
}

// Normalized returns a copy whose nil collections are replaced by empty ones,
// so the serialized form always carries every key as an array.
func (s Snapshot) Normalized() Snapshot {
	s.Enquiries = nonNil(s.Enquiries)
	s.Quotations = nonNil(s.Quotations)
	s.SalesOrders = nonNil(s.SalesOrders)
	s.Customers = nonNil(s.Customers)
	s.Suppliers = nonNil(s.Suppliers)
	s.Inventory = nonNil(s.Inventory)
	s.PurchaseOrders = nonNil(s.PurchaseOrders)
	s.ProductionJobs = nonNil(s.ProductionJobs)
	s.Dispatches = nonNil(s.Dispatches)
	s.Installations = nonNil(s.Installations)
	s.WarrantyClaims = nonNil(s.WarrantyClaims)
	s.ActivityLog = nonNil(s.ActivityLog)
	s.History = nonNil(s.History)
	s.Catalog = nonNil(s.Catalog)
	return s
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

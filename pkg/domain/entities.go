// Package domain defines the persistent ERP entities, status enums, lifecycle
// machines, typed errors and rule evaluation primitives used by upvcerp.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and error values.
const (
	EntityCustomer      EntityType = "customer"
	EntitySupplier      EntityType = "supplier"
	EntityInventoryItem EntityType = "inventory_item"
	EntityCatalogItem   EntityType = "catalog_item"
	EntityEnquiry       EntityType = "enquiry"
	EntityQuotation     EntityType = "quotation"
	EntitySalesOrder    EntityType = "sales_order"
	EntityPurchaseOrder EntityType = "purchase_order"
	EntityProductionJob EntityType = "production_job"
	EntityDispatch      EntityType = "dispatch"
	EntityInstallation  EntityType = "installation"
	EntityWarrantyClaim EntityType = "warranty_claim"
	EntityActivityLog   EntityType = "activity_log"
	EntityHistoryEntry  EntityType = "history_entry"
)

// ID prefixes used when the store generates identifiers.
const (
	PrefixEnquiry       = "ENQ"
	PrefixQuotation     = "QT"
	PrefixQuotationItem = "QTI"
	PrefixSalesOrder    = "SO"
	PrefixInventoryItem = "INV"
	PrefixCustomer      = "CUST"
	PrefixSupplier      = "SUP"
	PrefixPurchaseOrder = "PO"
	PrefixProductionJob = "PROD"
	PrefixDispatch      = "DISP"
	PrefixInstallation  = "INST"
	PrefixWarrantyClaim = "WARR"
	PrefixServiceVisit  = "SV"
	PrefixActivityLog   = "LOG"
)

// DateLayout is the day-granularity layout used for every date field.
const DateLayout = "2006-01-02"

// TimestampLayout is used for activity log timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Customer is a buyer of fabricated windows and doors.
type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GSTNumber string `json:"gstNumber,omitempty"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Supplier provides profiles, hardware, glass and consumables.
type Supplier struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GSTNumber string `json:"gstNumber,omitempty"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// InventoryItem is a stocked raw material. Cost is per Unit.
type InventoryItem struct {
	ID           string            `json:"id"`
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Category     InventoryCategory `json:"category"`
	Quantity     float64           `json:"quantity"`
	Unit         Unit              `json:"unit"`
	Cost         float64           `json:"cost"`
	SupplierID   string            `json:"supplierId"`
	ReorderLevel float64           `json:"reorderLevel"`
	Color        string            `json:"color,omitempty"`
	Dimensions   string            `json:"dimensions,omitempty"`
}

// Value returns quantity multiplied by unit cost.
func (i InventoryItem) Value() float64 { return i.Quantity * i.Cost }

// LowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) LowStock() bool { return i.Quantity <= i.ReorderLevel }

// CatalogItem is a supplier price-list entry imported in bulk.
type CatalogItem struct {
	Code  string  `json:"code"`
	Desc  string  `json:"desc"`
	Color string  `json:"color"`
	Price float64 `json:"price"`
}

// Enquiry is an unqualified customer request, the precursor to a quotation.
type Enquiry struct {
	ID           string        `json:"id"`
	CustomerName string        `json:"customerName"`
	Contact      string        `json:"contact"`
	Date         string        `json:"date"`
	Details      string        `json:"details"`
	Status       EnquiryStatus `json:"status"`
}

// QuotationItem is one priced window or door line. Width and Height are in millimeters.
type QuotationItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	ProfileID   string   `json:"profileId"`
	GlassID     string   `json:"glassId"`
	HardwareIDs []string `json:"hardwareIds"`
	Cost        float64  `json:"cost"`
	Quantity    float64  `json:"quantity"`
}

// Quotation is a priced proposal for an enquiry.
type Quotation struct {
	ID              string          `json:"id"`
	EnquiryID       string          `json:"enquiryId"`
	CustomerID      string          `json:"customerId"`
	Date            string          `json:"date"`
	Items           []QuotationItem `json:"items"`
	TotalCost       float64         `json:"totalCost"`
	Status          QuotationStatus `json:"status"`
	FabricationCost float64         `json:"fabricationCost"`
	GrandTotal      float64         `json:"grandTotal"`
}

// SalesOrder is a committed order tracked through the fabrication pipeline.
type SalesOrder struct {
	ID                   string          `json:"id"`
	QuotationID          string          `json:"quotationId"`
	CustomerID           string          `json:"customerId"`
	OrderDate            string          `json:"orderDate"`
	ExpectedDeliveryDate string          `json:"expectedDeliveryDate"`
	TotalAmount          float64         `json:"totalAmount"`
	Status               OrderStatus     `json:"status"`
	Items                []QuotationItem `json:"items"`
}

// PurchaseOrderItem is one procurement line.
type PurchaseOrderItem struct {
	InventoryItemID string  `json:"inventoryItemId"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unitCost"`
}

// PurchaseOrder is a procurement order placed with a supplier.
type PurchaseOrder struct {
	ID                   string              `json:"id"`
	SupplierID           string              `json:"supplierId"`
	OrderDate            string              `json:"orderDate"`
	ExpectedDeliveryDate string              `json:"expectedDeliveryDate"`
	Status               PurchaseOrderStatus `json:"status"`
	Items                []PurchaseOrderItem `json:"items"`
	TotalAmount          float64             `json:"totalAmount"`
}

// LinesTotal sums quantity times unit cost across all lines.
func (p PurchaseOrder) LinesTotal() float64 {
	var total float64
	for _, line := range p.Items {
		total += line.Quantity * line.UnitCost
	}
	return total
}

// ProductionJob tracks shop-floor work on a sales order.
type ProductionJob struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"orderId"`
	Stage      ProductionStage `json:"stage"`
	AssignedTo string          `json:"assignedTo"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate,omitempty"`
	QCPassed   bool            `json:"qcPassed"`
}

// Dispatch records an outbound delivery for a sales order.
type Dispatch struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"orderId"`
	DispatchDate  string         `json:"dispatchDate"`
	VehicleNumber string         `json:"vehicleNumber"`
	DriverName    string         `json:"driverName"`
	Status        DispatchStatus `json:"status"`
}

// Installation is an on-site fitting appointment.
type Installation struct {
	ID               string             `json:"id"`
	OrderID          string             `json:"orderId"`
	ScheduledDate    string             `json:"scheduledDate"`
	Team             []string           `json:"team"`
	Status           InstallationStatus `json:"status"`
	CompletionDate   string             `json:"completionDate,omitempty"`
	CustomerFeedback string             `json:"customerFeedback,omitempty"`
	Photos           []string           `json:"photos"`
}

// MaterialUsage is stock consumed during a service visit.
type MaterialUsage struct {
	InventoryItemID string  `json:"inventoryItemId"`
	Quantity        float64 `json:"quantity"`
}

// ServiceVisit is a technician visit against a warranty claim.
type ServiceVisit struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Technician    string          `json:"technician"`
	Notes         string          `json:"notes"`
	MaterialsUsed []MaterialUsage `json:"materialsUsed"`
}

// WarrantyClaim is an after-sales claim against an installed order.
type WarrantyClaim struct {
	ID                string         `json:"id"`
	OrderID           string         `json:"orderId"`
	ClaimDate         string         `json:"claimDate"`
	Description       string         `json:"description"`
	Status            WarrantyStatus `json:"status"`
	ResolutionDetails string         `json:"resolutionDetails,omitempty"`
	ServiceVisits     []ServiceVisit `json:"serviceVisits"`
}

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// HistoryEntry is a daily inventory valuation point.
type HistoryEntry struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Actor is the display-only identity recorded in activity entries.
type Actor struct {
	Name string   `json:"name"`
	Role UserRole `json:"role,omitempty"`
}

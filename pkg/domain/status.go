package domain

// InventoryCategory classifies inventory items. It is fixed at creation.
type InventoryCategory string

// Inventory categories.
const (
	CategoryProfile    InventoryCategory = "Profile"
	CategoryHardware   InventoryCategory = "Hardware"
	CategoryGlass      InventoryCategory = "Glass"
	CategoryConsumable InventoryCategory = "Consumable"
)

// Unit is the stocking unit of an inventory item.
type Unit string

// Stocking units.
const (
	UnitMeters       Unit = "meters"
	UnitPieces       Unit = "pieces"
	UnitSquareMeters Unit = "sqm"
	UnitLiters       Unit = "liters"
	UnitKilograms    Unit = "kg"
)

// UserRole is a display-only role label.
type UserRole string

// Display roles.
const (
	RoleAdmin      UserRole = "Admin"
	RoleManager    UserRole = "Manager"
	RoleSales      UserRole = "Sales"
	RoleProduction UserRole = "Production"
	RoleInstaller  UserRole = "Installer"
)

// EnquiryStatus enumerates enquiry states.
type EnquiryStatus string

// Enquiry states.
const (
	EnquiryNew    EnquiryStatus = "New"
	EnquiryQuoted EnquiryStatus = "Quoted"
	EnquiryClosed EnquiryStatus = "Closed"
)

// QuotationStatus enumerates quotation states.
type QuotationStatus string

// Quotation states.
const (
	QuotationDraft    QuotationStatus = "Draft"
	QuotationSent     QuotationStatus = "Sent"
	QuotationApproved QuotationStatus = "Approved"
	QuotationRejected QuotationStatus = "Rejected"
)

// OrderStatus enumerates the eight fulfilment stages of a sales order, in order.
type OrderStatus string

// Sales order stages.
const (
	OrderPending          OrderStatus = "Pending"
	OrderCutting          OrderStatus = "Cutting"
	OrderFabrication      OrderStatus = "Fabrication"
	OrderAssembly         OrderStatus = "Assembly"
	OrderGlazing          OrderStatus = "Glazing"
	OrderReadyForDispatch OrderStatus = "Ready for Dispatch"
	OrderDelivered        OrderStatus = "Delivered"
	OrderInstalled        OrderStatus = "Installed"
)

// OrderStages lists the sales order stages in timeline order.
var OrderStages = []OrderStatus{
	OrderPending,
	OrderCutting,
	OrderFabrication,
	OrderAssembly,
	OrderGlazing,
	OrderReadyForDispatch,
	OrderDelivered,
	OrderInstalled,
}

// PurchaseOrderStatus enumerates procurement states.
type PurchaseOrderStatus string

// Purchase order states.
const (
	PurchaseDraft             PurchaseOrderStatus = "Draft"
	PurchaseOrdered           PurchaseOrderStatus = "Ordered"
	PurchasePartiallyReceived PurchaseOrderStatus = "Partially Received"
	PurchaseReceived          PurchaseOrderStatus = "Received"
	PurchaseCancelled         PurchaseOrderStatus = "Cancelled"
)

// ProductionStage enumerates shop-floor stages, in order.
type ProductionStage string

// Production stages.
const (
	StageCutting        ProductionStage = "Cutting"
	StageWelding        ProductionStage = "Welding"
	StageCleaning       ProductionStage = "Cleaning"
	StageAssembly       ProductionStage = "Assembly"
	StageHardwareFixing ProductionStage = "Hardware Fixing"
	StageGlazing        ProductionStage = "Glazing"
)

// ProductionStages lists the production stages in shop-floor order.
var ProductionStages = []ProductionStage{
	StageCutting,
	StageWelding,
	StageCleaning,
	StageAssembly,
	StageHardwareFixing,
	StageGlazing,
}

// DispatchStatus enumerates delivery states.
type DispatchStatus string

// Dispatch states.
const (
	DispatchScheduled DispatchStatus = "Scheduled"
	DispatchInTransit DispatchStatus = "In Transit"
	DispatchDelivered DispatchStatus = "Delivered"
)

// InstallationStatus enumerates installation states.
type InstallationStatus string

// Installation states.
const (
	InstallationScheduled  InstallationStatus = "Scheduled"
	InstallationInProgress InstallationStatus = "In Progress"
	InstallationCompleted  InstallationStatus = "Completed"
	InstallationDelayed    InstallationStatus = "Delayed"
)

// WarrantyStatus enumerates warranty claim states.
type WarrantyStatus string

// Warranty claim states.
const (
	WarrantyOpen       WarrantyStatus = "Open"
	WarrantyInProgress WarrantyStatus = "In Progress"
	WarrantyResolved   WarrantyStatus = "Resolved"
	WarrantyClosed     WarrantyStatus = "Closed"
)

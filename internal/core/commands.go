package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"upvcerp/pkg/domain"
)

// Command is a tagged service request. Kind names the command in the JSON
// envelope accepted by DecodeCommand.
type Command interface {
	Kind() string
}

// QuotationLine is the caller-supplied part of a quotation item; cost and id
// are filled in by the service.
type QuotationLine struct {
	Description string   `json:"description"`
	Width       float64  `json:"width" validate:"gt=0"`
	Height      float64  `json:"height" validate:"gt=0"`
	ProfileID   string   `json:"profileId" validate:"required"`
	GlassID     string   `json:"glassId" validate:"required"`
	HardwareIDs []string `json:"hardwareIds"`
	Quantity    float64  `json:"quantity" validate:"gt=0"`
}

func (l QuotationLine) item() domain.QuotationItem {
	return domain.QuotationItem{
		Description: l.Description,
		Width:       l.Width,
		Height:      l.Height,
		ProfileID:   l.ProfileID,
		GlassID:     l.GlassID,
		HardwareIDs: append([]string(nil), l.HardwareIDs...),
		Quantity:    l.Quantity,
	}
}

// CreateEnquiry records a new customer enquiry.
type CreateEnquiry struct {
	CustomerName string `json:"customerName" validate:"required"`
	Contact      string `json:"contact"`
	Date         string `json:"date" validate:"omitempty,isodate"`
	Details      string `json:"details"`
}

// UpdateEnquiry merges the non-nil fields into an enquiry. Status is driven by
// quotations and cannot be set here.
type UpdateEnquiry struct {
	ID           string  `json:"id" validate:"required"`
	CustomerName *string `json:"customerName,omitempty" validate:"omitempty,min=1"`
	Contact      *string `json:"contact,omitempty"`
	Date         *string `json:"date,omitempty" validate:"omitempty,isodate"`
	Details      *string `json:"details,omitempty"`
}

// CreateQuotation prices lines for an enquiry and marks the enquiry Quoted.
type CreateQuotation struct {
	EnquiryID  string          `json:"enquiryId" validate:"required"`
	CustomerID string          `json:"customerId"`
	Date       string          `json:"date" validate:"omitempty,isodate"`
	Items      []QuotationLine `json:"items" validate:"dive"`
}

// AddQuotationItem prices and appends one line to a draft quotation.
type AddQuotationItem struct {
	QuotationID string        `json:"quotationId" validate:"required"`
	Item        QuotationLine `json:"item"`
}

// SendQuotation moves a quotation to Sent.
type SendQuotation struct {
	ID string `json:"id" validate:"required"`
}

// RejectQuotation moves a quotation to Rejected.
type RejectQuotation struct {
	ID string `json:"id" validate:"required"`
}

// ReviseQuotation moves a sent or rejected quotation back to Draft.
type ReviseQuotation struct {
	ID string `json:"id" validate:"required"`
}

// ApproveQuotation approves a quotation and raises its sales order. An empty
// ExpectedDeliveryDate defaults to the configured lead time.
type ApproveQuotation struct {
	ID                   string `json:"id" validate:"required"`
	ExpectedDeliveryDate string `json:"expectedDeliveryDate" validate:"omitempty,isodate"`
}

// AdvanceSalesOrder moves an order forward to Status.
type AdvanceSalesOrder struct {
	ID     string             `json:"id" validate:"required"`
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// AddInventoryItem stocks a new item. When the SKU already exists the quantity
// is added to that item instead.
type AddInventoryItem struct {
	SKU          string                   `json:"sku" validate:"required"`
	Name         string                   `json:"name" validate:"required"`
	Category     domain.InventoryCategory `json:"category" validate:"required,oneof=Profile Hardware Glass Consumable"`
	Quantity     float64                  `json:"quantity" validate:"gte=0"`
	Unit         domain.Unit              `json:"unit" validate:"required,oneof=meters pieces sqm liters kg"`
	Cost         float64                  `json:"cost" validate:"gte=0"`
	SupplierID   string                   `json:"supplierId"`
	ReorderLevel float64                  `json:"reorderLevel" validate:"gte=0"`
	Color        string                   `json:"color,omitempty"`
	Dimensions   string                   `json:"dimensions,omitempty"`
}

// UpdateInventoryItem merges the non-nil fields into an item. Category is fixed
// at creation.
type UpdateInventoryItem struct {
	ID           string       `json:"id" validate:"required"`
	SKU          *string      `json:"sku,omitempty" validate:"omitempty,min=1"`
	Name         *string      `json:"name,omitempty" validate:"omitempty,min=1"`
	Quantity     *float64     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit         *domain.Unit `json:"unit,omitempty" validate:"omitempty,oneof=meters pieces sqm liters kg"`
	Cost         *float64     `json:"cost,omitempty" validate:"omitempty,gte=0"`
	SupplierID   *string      `json:"supplierId,omitempty"`
	ReorderLevel *float64     `json:"reorderLevel,omitempty" validate:"omitempty,gte=0"`
	Color        *string      `json:"color,omitempty"`
	Dimensions   *string      `json:"dimensions,omitempty"`
}

// AdjustStock applies a signed quantity change to an item.
type AdjustStock struct {
	ID     string  `json:"id" validate:"required"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// DeleteInventoryItem removes an item.
type DeleteInventoryItem struct {
	ID string `json:"id" validate:"required"`
}

// CreateCustomer adds a customer.
type CreateCustomer struct {
	Name      string `json:"name" validate:"required"`
	GSTNumber string `json:"gstNumber,omitempty"`
	Address   string `json:"address"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

// UpdateCustomer merges the non-nil fields into a customer.
type UpdateCustomer struct {
	ID        string  `json:"id" validate:"required"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1"`
	GSTNumber *string `json:"gstNumber,omitempty"`
	Address   *string `json:"address,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// DeleteCustomer removes a customer. Orders referencing it are kept.
type DeleteCustomer struct {
	ID string `json:"id" validate:"required"`
}

// CreateSupplier adds a supplier.
type CreateSupplier struct {
	Name      string `json:"name" validate:"required"`
	GSTNumber string `json:"gstNumber,omitempty"`
	Address   string `json:"address"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

// UpdateSupplier merges the non-nil fields into a supplier.
type UpdateSupplier struct {
	ID        string  `json:"id" validate:"required"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1"`
	GSTNumber *string `json:"gstNumber,omitempty"`
	Address   *string `json:"address,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// DeleteSupplier removes a supplier.
type DeleteSupplier struct {
	ID string `json:"id" validate:"required"`
}

// PurchaseLine is one requested procurement line.
type PurchaseLine struct {
	InventoryItemID string  `json:"inventoryItemId" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	UnitCost        float64 `json:"unitCost" validate:"gte=0"`
}

// CreatePurchaseOrder raises a purchase order in Draft, or Ordered when asked.
// TotalAmount defaults to the sum of the lines.
type CreatePurchaseOrder struct {
	SupplierID           string                     `json:"supplierId" validate:"required"`
	OrderDate            string                     `json:"orderDate" validate:"omitempty,isodate"`
	ExpectedDeliveryDate string                     `json:"expectedDeliveryDate" validate:"omitempty,isodate"`
	Status               domain.PurchaseOrderStatus `json:"status,omitempty" validate:"omitempty,oneof=Draft Ordered"`
	Items                []PurchaseLine             `json:"items" validate:"required,min=1,dive"`
	TotalAmount          *float64                   `json:"totalAmount,omitempty" validate:"omitempty,gte=0"`
}

// TransitionPurchaseOrder moves a purchase order to Status. Entering Received
// books every line into stock.
type TransitionPurchaseOrder struct {
	ID     string                     `json:"id" validate:"required"`
	Status domain.PurchaseOrderStatus `json:"status" validate:"required"`
}

// StartProductionJob opens a shop-floor job for an order.
type StartProductionJob struct {
	OrderID    string                 `json:"orderId" validate:"required"`
	AssignedTo string                 `json:"assignedTo"`
	StartDate  string                 `json:"startDate" validate:"omitempty,isodate"`
	Stage      domain.ProductionStage `json:"stage,omitempty"`
}

// AdvanceProductionJob moves a job to a later stage and records QC and end date.
type AdvanceProductionJob struct {
	ID       string                 `json:"id" validate:"required"`
	Stage    domain.ProductionStage `json:"stage,omitempty"`
	EndDate  string                 `json:"endDate,omitempty" validate:"omitempty,isodate"`
	QCPassed *bool                  `json:"qcPassed,omitempty"`
}

// CreateDispatch records a delivery and marks the order Delivered.
type CreateDispatch struct {
	OrderID       string                `json:"orderId" validate:"required"`
	DispatchDate  string                `json:"dispatchDate" validate:"omitempty,isodate"`
	VehicleNumber string                `json:"vehicleNumber"`
	DriverName    string                `json:"driverName"`
	Status        domain.DispatchStatus `json:"status,omitempty"`
}

// TransitionDispatch moves a dispatch to Status.
type TransitionDispatch struct {
	ID     string                `json:"id" validate:"required"`
	Status domain.DispatchStatus `json:"status" validate:"required"`
}

// ScheduleInstallation books an installation for an order.
type ScheduleInstallation struct {
	OrderID       string   `json:"orderId" validate:"required"`
	ScheduledDate string   `json:"scheduledDate" validate:"required,isodate"`
	Team          []string `json:"team"`
}

// TransitionInstallation moves an installation to Status. Completing it
// completes the order.
type TransitionInstallation struct {
	ID               string                    `json:"id" validate:"required"`
	Status           domain.InstallationStatus `json:"status" validate:"required"`
	CompletionDate   string                    `json:"completionDate,omitempty" validate:"omitempty,isodate"`
	CustomerFeedback string                    `json:"customerFeedback,omitempty"`
	Photos           []string                  `json:"photos,omitempty"`
}

// OpenWarrantyClaim raises a claim against an installed order.
type OpenWarrantyClaim struct {
	OrderID     string `json:"orderId" validate:"required"`
	ClaimDate   string `json:"claimDate" validate:"omitempty,isodate"`
	Description string `json:"description" validate:"required"`
}

// TransitionWarrantyClaim moves a claim to Status.
type TransitionWarrantyClaim struct {
	ID                string                `json:"id" validate:"required"`
	Status            domain.WarrantyStatus `json:"status" validate:"required"`
	ResolutionDetails string                `json:"resolutionDetails,omitempty"`
}

// MaterialLine is stock used on a service visit.
type MaterialLine struct {
	InventoryItemID string  `json:"inventoryItemId" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
}

// RecordServiceVisit appends a visit to a claim and consumes its materials.
type RecordServiceVisit struct {
	ClaimID       string         `json:"claimId" validate:"required"`
	Date          string         `json:"date" validate:"omitempty,isodate"`
	Technician    string         `json:"technician" validate:"required"`
	Notes         string         `json:"notes"`
	MaterialsUsed []MaterialLine `json:"materialsUsed" validate:"dive"`
}

// ImportCatalog adds catalog entries whose code is not yet present.
type ImportCatalog struct {
	Items []domain.CatalogItem `json:"items" validate:"dive"`
}

// RestoreData replaces the whole state with Data.
type RestoreData struct {
	Data domain.Snapshot `json:"data"`
}

// ResetData clears durable storage and starts from the empty seed.
type ResetData struct{}

func (CreateEnquiry) Kind() string           { return "CreateEnquiry" }
func (UpdateEnquiry) Kind() string           { return "UpdateEnquiry" }
func (CreateQuotation) Kind() string         { return "CreateQuotation" }
func (AddQuotationItem) Kind() string        { return "AddQuotationItem" }
func (SendQuotation) Kind() string           { return "SendQuotation" }
func (RejectQuotation) Kind() string         { return "RejectQuotation" }
func (ReviseQuotation) Kind() string         { return "ReviseQuotation" }
func (ApproveQuotation) Kind() string        { return "ApproveQuotation" }
func (AdvanceSalesOrder) Kind() string       { return "AdvanceSalesOrder" }
func (AddInventoryItem) Kind() string        { return "AddInventoryItem" }
func (UpdateInventoryItem) Kind() string     { return "UpdateInventoryItem" }
func (AdjustStock) Kind() string             { return "AdjustStock" }
func (DeleteInventoryItem) Kind() string     { return "DeleteInventoryItem" }
func (CreateCustomer) Kind() string          { return "CreateCustomer" }
func (UpdateCustomer) Kind() string          { return "UpdateCustomer" }
func (DeleteCustomer) Kind() string          { return "DeleteCustomer" }
func (CreateSupplier) Kind() string          { return "CreateSupplier" }
func (UpdateSupplier) Kind() string          { return "UpdateSupplier" }
func (DeleteSupplier) Kind() string          { return "DeleteSupplier" }
func (CreatePurchaseOrder) Kind() string     { return "CreatePurchaseOrder" }
func (TransitionPurchaseOrder) Kind() string { return "TransitionPurchaseOrder" }
func (StartProductionJob) Kind() string      { return "StartProductionJob" }
func (AdvanceProductionJob) Kind() string    { return "AdvanceProductionJob" }
func (CreateDispatch) Kind() string          { return "CreateDispatch" }
func (TransitionDispatch) Kind() string      { return "TransitionDispatch" }
func (ScheduleInstallation) Kind() string    { return "ScheduleInstallation" }
func (TransitionInstallation) Kind() string  { return "TransitionInstallation" }
func (OpenWarrantyClaim) Kind() string       { return "OpenWarrantyClaim" }
func (TransitionWarrantyClaim) Kind() string { return "TransitionWarrantyClaim" }
func (RecordServiceVisit) Kind() string      { return "RecordServiceVisit" }
func (ImportCatalog) Kind() string           { return "ImportCatalog" }
func (RestoreData) Kind() string             { return "RestoreData" }
func (ResetData) Kind() string               { return "ResetData" }

type decoder func(json.RawMessage) (Command, error)

var decoders = map[string]decoder{}

func register[T Command]() {
	var zero T
	decoders[zero.Kind()] = func(raw json.RawMessage) (Command, error) {
		var cmd T
		if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return cmd, nil
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cmd); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", zero.Kind(), err)
		}
		return cmd, nil
	}
}

func init() {
	register[CreateEnquiry]()
	register[UpdateEnquiry]()
	register[CreateQuotation]()
	register[AddQuotationItem]()
	register[SendQuotation]()
	register[RejectQuotation]()
	register[ReviseQuotation]()
	register[ApproveQuotation]()
	register[AdvanceSalesOrder]()
	register[AddInventoryItem]()
	register[UpdateInventoryItem]()
	register[AdjustStock]()
	register[DeleteInventoryItem]()
	register[CreateCustomer]()
	register[UpdateCustomer]()
	register[DeleteCustomer]()
	register[CreateSupplier]()
	register[UpdateSupplier]()
	register[DeleteSupplier]()
	register[CreatePurchaseOrder]()
	register[TransitionPurchaseOrder]()
	register[StartProductionJob]()
	register[AdvanceProductionJob]()
	register[CreateDispatch]()
	register[TransitionDispatch]()
	register[ScheduleInstallation]()
	register[TransitionInstallation]()
	register[OpenWarrantyClaim]()
	register[TransitionWarrantyClaim]()
	register[RecordServiceVisit]()
	register[ImportCatalog]()
	register[RestoreData]()
	register[ResetData]()
}

// Envelope is the wire form of a command.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UnknownCommandError is returned by DecodeCommand for an unregistered type.
type UnknownCommandError struct {
	Type string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command type %q", e.Type)
}

// DecodeCommand decodes a {"type": ..., "payload": ...} envelope into the
// matching command value. Unknown payload fields are rejected.
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, &UnknownCommandError{Type: env.Type}
	}
	return dec(env.Payload)
}

// EncodeCommand wraps cmd in its envelope.
func EncodeCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(Envelope{Type: cmd.Kind(), Payload: payload})
}

// CommandKinds lists every registered command type, sorted.
func CommandKinds() []string {
	out := make([]string, 0, len(decoders))
	for kind := range decoders {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

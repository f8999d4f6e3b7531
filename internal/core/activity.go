package core

import (
	"context"
	"fmt"
	"strconv"

	"upvcerp/pkg/domain"
)

// Activity actions recorded by the service.
const (
	ActionEnquiryCreated         = "Enquiry Created"
	ActionQuotationCreated       = "Quotation Created"
	ActionQuotationUpdated       = "Quotation Updated"
	ActionQuotationStatusUpdated = "Quotation Status Updated"
	ActionSalesOrderCreated      = "Sales Order Created"
	ActionOrderStatusUpdated     = "Order Status Updated"
	ActionInventoryItemAdded     = "Inventory Item Added"
	ActionInventoryUpdated       = "Inventory Updated"
	ActionInventoryItemDeleted   = "Inventory Item Deleted"
	ActionCustomerAdded          = "Customer Added"
	ActionCustomerDeleted        = "Customer Deleted"
	ActionSupplierAdded          = "Supplier Added"
	ActionSupplierDeleted        = "Supplier Deleted"
	ActionPurchaseOrderCreated   = "Purchase Order Created"
	ActionPurchaseOrderReceived  = "PO Received"
	ActionProductionJobStarted   = "Production Job Started"
	ActionProductionJobUpdated   = "Production Job Updated"
	ActionOrderDispatched        = "Order Dispatched"
	ActionInstallationScheduled  = "Installation Scheduled"
	ActionInstallationCompleted  = "Installation Completed"
	ActionWarrantyClaimOpened    = "Warranty Claim Opened"
	ActionServiceVisitRecorded   = "Service Visit Recorded"
	ActionCatalogImported        = "Catalog Imported"
	ActionDataRestore            = "Data Restore"
	ActionSystemReset            = "System Reset"
)

func logActivity(ctx context.Context, tx Transaction, action, format string, args ...any) error {
	_, err := tx.AppendActivity(domain.ActivityLog{
		User:    ActorFrom(ctx),
		Action:  action,
		Details: fmt.Sprintf(format, args...),
	})
	return err
}

func logStockChange(ctx context.Context, tx Transaction, item domain.InventoryItem) error {
	return logActivity(ctx, tx, ActionInventoryUpdated, "Item #%s updated. New quantity: %s", item.ID, formatQty(item.Quantity))
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func today(tx Transaction) string {
	return tx.Now().Format(domain.DateLayout)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

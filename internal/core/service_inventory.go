package core

import (
	"context"
	"errors"

	"upvcerp/pkg/domain"
)

// AddInventoryItem stocks a new item, or adds to the quantity of the item that
// already carries the SKU (compared case-insensitively).
func (s *Service) AddInventoryItem(ctx context.Context, cmd AddInventoryItem) (domain.InventoryItem, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.InventoryItem, error) {
		if existing, ok := tx.FindInventoryItemBySKU(cmd.SKU); ok {
			updated, err := tx.UpdateInventoryItem(existing.ID, func(i *domain.InventoryItem) error {
				i.Quantity += cmd.Quantity
				return nil
			})
			if err != nil {
				return updated, err
			}
			return updated, logStockChange(ctx, tx, updated)
		}
		created, err := tx.CreateInventoryItem(domain.InventoryItem{
			SKU:          cmd.SKU,
			Name:         cmd.Name,
			Category:     cmd.Category,
			Quantity:     cmd.Quantity,
			Unit:         cmd.Unit,
			Cost:         cmd.Cost,
			SupplierID:   cmd.SupplierID,
			ReorderLevel: cmd.ReorderLevel,
			Color:        cmd.Color,
			Dimensions:   cmd.Dimensions,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionInventoryItemAdded, "New item: %s (SKU: %s)", created.Name, created.SKU)
	})
}

// UpdateInventoryItem merges fields into an item.
func (s *Service) UpdateInventoryItem(ctx context.Context, cmd UpdateInventoryItem) (domain.InventoryItem, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.InventoryItem, error) {
		updated, err := tx.UpdateInventoryItem(cmd.ID, func(i *domain.InventoryItem) error {
			setIf(&i.SKU, cmd.SKU)
			setIf(&i.Name, cmd.Name)
			setIf(&i.Quantity, cmd.Quantity)
			setIf(&i.Unit, cmd.Unit)
			setIf(&i.Cost, cmd.Cost)
			setIf(&i.SupplierID, cmd.SupplierID)
			setIf(&i.ReorderLevel, cmd.ReorderLevel)
			setIf(&i.Color, cmd.Color)
			setIf(&i.Dimensions, cmd.Dimensions)
			return nil
		})
		if err != nil {
			return updated, err
		}
		return updated, logStockChange(ctx, tx, updated)
	})
}

// AdjustStock applies a signed change. Driving the quantity below zero fails
// with *domain.InsufficientStockError.
func (s *Service) AdjustStock(ctx context.Context, cmd AdjustStock) (domain.InventoryItem, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.InventoryItem, error) {
		updated, err := consume(tx, cmd.ID, -cmd.Delta, "")
		if err != nil {
			return updated, err
		}
		return updated, logStockChange(ctx, tx, updated)
	})
}

// consume removes qty from an item; a negative qty adds stock. With a role set,
// an unknown id is reported as a missing reference instead of not found.
func consume(tx Transaction, id string, qty float64, role string) (domain.InventoryItem, error) {
	updated, err := tx.UpdateInventoryItem(id, func(i *domain.InventoryItem) error {
		if i.Quantity-qty < 0 {
			return &domain.InsufficientStockError{ItemID: i.ID, Available: i.Quantity, Requested: qty}
		}
		i.Quantity -= qty
		return nil
	})
	var nf *domain.NotFoundError
	if role != "" && errors.As(err, &nf) {
		return updated, &domain.MissingReferenceError{Role: role, ID: id}
	}
	return updated, err
}

// DeleteInventoryItem removes an item. References from quotations are left as they are.
func (s *Service) DeleteInventoryItem(ctx context.Context, cmd DeleteInventoryItem) (Result, error) {
	return s.run(ctx, cmd, func(tx Transaction) error {
		if err := tx.DeleteInventoryItem(cmd.ID); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionInventoryItemDeleted, "Item ID #%s was deleted.", cmd.ID)
	})
}

// CreateCustomer adds a customer.
func (s *Service) CreateCustomer(ctx context.Context, cmd CreateCustomer) (domain.Customer, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Customer, error) {
		created, err := tx.CreateCustomer(domain.Customer{
			Name:      cmd.Name,
			GSTNumber: cmd.GSTNumber,
			Address:   cmd.Address,
			Email:     cmd.Email,
			Phone:     cmd.Phone,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionCustomerAdded, "New customer: %s", created.Name)
	})
}

// UpdateCustomer merges fields into a customer.
func (s *Service) UpdateCustomer(ctx context.Context, cmd UpdateCustomer) (domain.Customer, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Customer, error) {
		return tx.UpdateCustomer(cmd.ID, func(c *domain.Customer) error {
			setIf(&c.Name, cmd.Name)
			setIf(&c.GSTNumber, cmd.GSTNumber)
			setIf(&c.Address, cmd.Address)
			setIf(&c.Email, cmd.Email)
			setIf(&c.Phone, cmd.Phone)
			return nil
		})
	})
}

// DeleteCustomer removes a customer without touching its orders.
func (s *Service) DeleteCustomer(ctx context.Context, cmd DeleteCustomer) (Result, error) {
	return s.run(ctx, cmd, func(tx Transaction) error {
		if err := tx.DeleteCustomer(cmd.ID); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionCustomerDeleted, "Customer ID #%s was deleted.", cmd.ID)
	})
}

// CreateSupplier adds a supplier.
func (s *Service) CreateSupplier(ctx context.Context, cmd CreateSupplier) (domain.Supplier, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Supplier, error) {
		created, err := tx.CreateSupplier(domain.Supplier{
			Name:      cmd.Name,
			GSTNumber: cmd.GSTNumber,
			Address:   cmd.Address,
			Email:     cmd.Email,
			Phone:     cmd.Phone,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionSupplierAdded, "New supplier: %s", created.Name)
	})
}

// UpdateSupplier merges fields into a supplier.
func (s *Service) UpdateSupplier(ctx context.Context, cmd UpdateSupplier) (domain.Supplier, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Supplier, error) {
		return tx.UpdateSupplier(cmd.ID, func(sp *domain.Supplier) error {
			setIf(&sp.Name, cmd.Name)
			setIf(&sp.GSTNumber, cmd.GSTNumber)
			setIf(&sp.Address, cmd.Address)
			setIf(&sp.Email, cmd.Email)
			setIf(&sp.Phone, cmd.Phone)
			return nil
		})
	})
}

// DeleteSupplier removes a supplier.
func (s *Service) DeleteSupplier(ctx context.Context, cmd DeleteSupplier) (Result, error) {
	return s.run(ctx, cmd, func(tx Transaction) error {
		if err := tx.DeleteSupplier(cmd.ID); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionSupplierDeleted, "Supplier ID #%s was deleted.", cmd.ID)
	})
}

// CreatePurchaseOrder raises a purchase order. Every line must name an
// existing inventory item.
func (s *Service) CreatePurchaseOrder(ctx context.Context, cmd CreatePurchaseOrder) (domain.PurchaseOrder, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.PurchaseOrder, error) {
		if _, ok := tx.FindSupplier(cmd.SupplierID); !ok {
			return domain.PurchaseOrder{}, &domain.NotFoundError{Entity: domain.EntitySupplier, ID: cmd.SupplierID}
		}
		po := domain.PurchaseOrder{
			SupplierID:           cmd.SupplierID,
			OrderDate:            orDefault(cmd.OrderDate, today(tx)),
			ExpectedDeliveryDate: cmd.ExpectedDeliveryDate,
			Status:               cmd.Status,
			Items:                make([]domain.PurchaseOrderItem, len(cmd.Items)),
		}
		if po.Status == "" {
			po.Status = domain.PurchaseDraft
		}
		for i, line := range cmd.Items {
			if _, ok := tx.FindInventoryItem(line.InventoryItemID); !ok {
				return domain.PurchaseOrder{}, &domain.MissingReferenceError{Role: domain.RoleInventoryRef, ID: line.InventoryItemID}
			}
			po.Items[i] = domain.PurchaseOrderItem(line)
		}
		po.TotalAmount = po.LinesTotal()
		if cmd.TotalAmount != nil {
			po.TotalAmount = *cmd.TotalAmount
		}
		created, err := tx.CreatePurchaseOrder(po)
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionPurchaseOrderCreated, "New PO #%s created.", created.ID)
	})
}

// TransitionPurchaseOrder moves a purchase order through its lifecycle. The
// move into Received adds every line quantity to stock; Received is terminal,
// so this happens once. Item cost is not re-averaged.
func (s *Service) TransitionPurchaseOrder(ctx context.Context, cmd TransitionPurchaseOrder) (domain.PurchaseOrder, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.PurchaseOrder, error) {
		before, ok := tx.FindPurchaseOrder(cmd.ID)
		if !ok {
			return domain.PurchaseOrder{}, &domain.NotFoundError{Entity: domain.EntityPurchaseOrder, ID: cmd.ID}
		}
		updated, err := tx.UpdatePurchaseOrder(cmd.ID, func(p *domain.PurchaseOrder) error {
			return p.Transition(cmd.Status)
		})
		if err != nil {
			return updated, err
		}
		if before.Status == domain.PurchaseReceived || updated.Status != domain.PurchaseReceived {
			return updated, nil
		}
		for _, line := range updated.Items {
			item, err := consume(tx, line.InventoryItemID, -line.Quantity, domain.RoleInventoryRef)
			if err != nil {
				return updated, err
			}
			if err := logStockChange(ctx, tx, item); err != nil {
				return updated, err
			}
		}
		return updated, logActivity(ctx, tx, ActionPurchaseOrderReceived, "PO #%s marked as received. Stock updated.", updated.ID)
	})
}

// ImportCatalog adds entries whose code is new and returns the ones added.
func (s *Service) ImportCatalog(ctx context.Context, cmd ImportCatalog) ([]domain.CatalogItem, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) ([]domain.CatalogItem, error) {
		added := tx.AddCatalogItems(cmd.Items)
		return added, logActivity(ctx, tx, ActionCatalogImported, "%d new items added to the catalog from CSV.", len(added))
	})
}

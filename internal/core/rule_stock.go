package core

import (
	"context"
	"fmt"

	"upvcerp/pkg/domain"
)

// NonNegativeStockRule blocks any write that leaves an inventory item below zero.
func NonNegativeStockRule() domain.Rule { return nonNegativeStockRule{} }

type nonNegativeStockRule struct{}

func (nonNegativeStockRule) Name() string { return "non_negative_stock" }

func (nonNegativeStockRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(changes) {
		if item.after.Quantity < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "non_negative_stock",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("inventory item %s (%s) would hold %g %s", item.after.Name, item.after.ID, item.after.Quantity, item.after.Unit),
				Entity:   domain.EntityInventoryItem,
				EntityID: item.after.ID,
			})
		}
	}
	return res, nil
}

// CategoryImmutableRule blocks changing the category of an existing item.
func CategoryImmutableRule() domain.Rule { return categoryImmutableRule{} }

type categoryImmutableRule struct{}

func (categoryImmutableRule) Name() string { return "inventory_category_immutable" }

func (categoryImmutableRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(changes) {
		if item.before == nil || item.before.Category == item.after.Category {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "inventory_category_immutable",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("inventory item %s cannot move from %s to %s", item.after.ID, item.before.Category, item.after.Category),
			Entity:   domain.EntityInventoryItem,
			EntityID: item.after.ID,
		})
	}
	return res, nil
}

// LowStockRule warns when a write takes an item to or below its reorder level.
func LowStockRule() domain.Rule { return lowStockRule{} }

type lowStockRule struct{}

func (lowStockRule) Name() string { return "low_stock" }

func (lowStockRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(changes) {
		if !item.after.LowStock() || (item.before != nil && item.before.LowStock()) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "low_stock",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("%s (%s) is at %g, reorder level %g", item.after.Name, item.after.SKU, item.after.Quantity, item.after.ReorderLevel),
			Entity:   domain.EntityInventoryItem,
			EntityID: item.after.ID,
		})
	}
	return res, nil
}

type itemChange struct {
	before *domain.InventoryItem
	after  domain.InventoryItem
}

func changedItems(changes []domain.Change) []itemChange {
	var out []itemChange
	for _, change := range changes {
		if change.Entity != domain.EntityInventoryItem {
			continue
		}
		after, ok := change.After.(domain.InventoryItem)
		if !ok {
			continue
		}
		ic := itemChange{after: after}
		if before, ok := change.Before.(domain.InventoryItem); ok {
			ic.before = &before
		}
		out = append(out, ic)
	}
	return out
}

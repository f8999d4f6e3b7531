package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upvcerp/pkg/domain"
)

func snapshot() domain.Snapshot {
	return domain.Snapshot{
		Inventory: []domain.InventoryItem{
			{ID: "1", SKU: "PRF-W", Name: "White Frame", Category: domain.CategoryProfile, Color: "White", Quantity: 100, Cost: 200.005, ReorderLevel: 20},
			{ID: "2", SKU: "PRF-O", Name: "Oak Frame", Category: domain.CategoryProfile, Color: "Oak", Quantity: 100, Cost: 260, ReorderLevel: 20},
			{ID: "3", SKU: "GLS-5", Name: "5mm Clear", Category: domain.CategoryGlass, Color: "Clear", Quantity: 500, Cost: 10, ReorderLevel: 500},
			{ID: "4", SKU: "PRF-W", Name: "White Frame (old lot)", Category: domain.CategoryProfile, Quantity: 0.5, Cost: 0, ReorderLevel: 1},
		},
		History: []domain.HistoryEntry{
			{Date: "2024-05-05", Value: 50000},
			{Date: "2024-05-06", Value: 51000},
		},
		SalesOrders: []domain.SalesOrder{
			{Status: domain.OrderPending}, {Status: domain.OrderGlazing},
			{Status: domain.OrderDelivered}, {Status: domain.OrderInstalled},
		},
		Quotations: []domain.Quotation{
			{Status: domain.QuotationSent}, {Status: domain.QuotationDraft}, {Status: domain.QuotationSent},
		},
	}
}

func TestBuild(t *testing.T) {
	d := Build(snapshot())

	assert.InDelta(t, 51000.5, d.TotalValue, 1e-9)
	assert.InDelta(t, 700.5, d.TotalQuantity, 1e-9)
	assert.Equal(t, 3, d.SKUCount)
	assert.Equal(t, "+2.0%", d.ValueChange)
	assert.Equal(t, 2, d.LowStockCount)
	assert.Equal(t, "Oak", d.TopProfileColor, "ties go to the colour seen last")
	assert.Equal(t, ItemValue{Name: "Oak Frame", Value: 26000}, d.MostValuable)
	assert.Equal(t, 2, d.ActiveOrders)
	assert.Equal(t, 2, d.PendingQuotes)
}

func TestBuildEmpty(t *testing.T) {
	d := Build(domain.EmptySnapshot())
	assert.Equal(t, Dashboard{
		ValueChange:     NoChange,
		TopProfileColor: None,
		MostValuable:    ItemValue{Name: None},
	}, d)
}

func TestLowStock(t *testing.T) {
	low := LowStock(snapshot().Inventory)
	assert.Len(t, low, 2)
	assert.Equal(t, "3", low[0].ID)
	assert.Equal(t, "4", low[1].ID)
	assert.NotNil(t, LowStock(nil))
}

func TestMoney(t *testing.T) {
	assert.InDelta(t, 10.13, Money(10.125), 1e-9)
	assert.InDelta(t, -3.46, Money(-3.456), 1e-9)
}

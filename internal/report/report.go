// Package report computes read-only summaries over a snapshot: the dashboard
// figures and the low-stock list.
package report

import (
	"github.com/shopspring/decimal"

	"upvcerp/internal/valuation"
	"upvcerp/pkg/domain"
)

// None is reported when no item qualifies for a named figure.
const None = "None"

// NoChange is reported when there is no previous valuation to compare with.
const NoChange = "+0%"

// ItemValue names an item and its stock value.
type ItemValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Dashboard holds the headline figures. Money values are rounded to two places.
type Dashboard struct {
	TotalValue      float64   `json:"totalValue"`
	TotalQuantity   float64   `json:"totalQuantity"`
	SKUCount        int       `json:"skuCount"`
	ValueChange     string    `json:"valueChange"`
	LowStockCount   int       `json:"lowStockCount"`
	TopProfileColor string    `json:"topProfileColor"`
	MostValuable    ItemValue `json:"mostValuable"`
	ActiveOrders    int       `json:"activeOrders"`
	PendingQuotes   int       `json:"pendingQuotes"`
}

// Money rounds v to two decimal places.
func Money(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

// Build computes the dashboard for snap.
func Build(snap domain.Snapshot) Dashboard {
	d := Dashboard{
		ValueChange:     NoChange,
		TopProfileColor: None,
		MostValuable:    ItemValue{Name: None},
	}
	total := valuation.TotalValue(snap.Inventory)
	d.TotalValue = Money(total)

	skus := map[string]struct{}{}
	colors := map[string]float64{}
	var colorOrder []string
	qty := decimal.Zero
	for _, item := range snap.Inventory {
		qty = qty.Add(decimal.NewFromFloat(item.Quantity))
		skus[item.SKU] = struct{}{}
		if item.LowStock() {
			d.LowStockCount++
		}
		if item.Category == domain.CategoryProfile && item.Color != "" {
			if _, seen := colors[item.Color]; !seen {
				colorOrder = append(colorOrder, item.Color)
			}
			colors[item.Color] += item.Quantity
		}
		if v := item.Value(); v > d.MostValuable.Value {
			d.MostValuable = ItemValue{Name: item.Name, Value: v}
		}
	}
	d.TotalQuantity, _ = qty.Float64()
	d.SKUCount = len(skus)
	d.MostValuable.Value = Money(d.MostValuable.Value)

	best := -1.0
	for _, c := range colorOrder {
		if colors[c] >= best {
			best = colors[c]
			d.TopProfileColor = c
		}
	}

	if pct, ok := valuation.Change(snap.History, total); ok {
		d.ValueChange = valuation.FormatChange(pct)
	}

	for _, o := range snap.SalesOrders {
		if o.Status != domain.OrderDelivered && o.Status != domain.OrderInstalled {
			d.ActiveOrders++
		}
	}
	for _, q := range snap.Quotations {
		if q.Status == domain.QuotationSent {
			d.PendingQuotes++
		}
	}
	return d
}

// LowStock returns the items at or below their reorder level, in inventory order.
func LowStock(items []domain.InventoryItem) []domain.InventoryItem {
	out := []domain.InventoryItem{}
	for _, item := range items {
		if item.LowStock() {
			out = append(out, item)
		}
	}
	return out
}

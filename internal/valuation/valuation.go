// Package valuation maintains the daily inventory valuation history.
package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"upvcerp/pkg/domain"
)

// MaxEntries is the number of daily points kept; older ones are dropped first.
const MaxEntries = 30

// TotalValue sums quantity times cost over items.
func TotalValue(items []domain.InventoryItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Cost)))
	}
	v, _ := total.Float64()
	return v
}

// Record returns history with value stored for day. When the last entry is
// already for day it is overwritten, otherwise a new entry is appended. The
// result holds at most MaxEntries entries. history is not modified.
func Record(history []domain.HistoryEntry, value float64, day string) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	if n := len(out); n > 0 && out[n-1].Date == day {
		out[n-1].Value = value
	} else {
		out = append(out, domain.HistoryEntry{Date: day, Value: value})
	}
	if len(out) > MaxEntries {
		out = out[len(out)-MaxEntries:]
	}
	return out
}

// Change returns the percentage change of current against the entry before the
// last one, which is the previous day's close once today's value is recorded.
// ok is false when there is no previous entry or it is zero.
func Change(history []domain.HistoryEntry, current float64) (pct float64, ok bool) {
	if len(history) < 2 {
		return 0, false
	}
	prev := history[len(history)-2].Value
	if prev == 0 {
		return 0, false
	}
	pct, _ = decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(prev)).
		Div(decimal.NewFromFloat(prev)).Mul(decimal.NewFromInt(100)).Float64()
	return pct, true
}

// FormatChange renders a change as "+X.X%" or "-X.X%".
func FormatChange(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(1)
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return fmt.Sprintf("%s%s%%", sign, d.StringFixed(1))
}

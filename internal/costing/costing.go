// Package costing prices quotation lines from inventory rates. It is pure: it
// reads rates through RateSource and never mutates anything.
package costing

import (
	"upvcerp/pkg/domain"
)

const (
	// WastageFactor scales the profile perimeter to cover offcuts.
	WastageFactor = 1.8
	// FabricationRate is the share of material cost charged for fabrication.
	FabricationRate = 0.15
)

// Line describes one window or door to be priced. Width and Height are in millimeters.
type Line struct {
	Width       float64
	Height      float64
	ProfileID   string
	GlassID     string
	HardwareIDs []string
	Quantity    float64
}

// LineFromItem extracts the costing inputs of a quotation item.
func LineFromItem(item domain.QuotationItem) Line {
	return Line{
		Width:       item.Width,
		Height:      item.Height,
		ProfileID:   item.ProfileID,
		GlassID:     item.GlassID,
		HardwareIDs: item.HardwareIDs,
		Quantity:    item.Quantity,
	}
}

// Rates are the unit costs a line is priced with: profile per meter, glass per
// square meter, one entry per hardware reference.
type Rates struct {
	Profile  float64
	Glass    float64
	Hardware []float64
}

// Breakdown itemises a priced line. Profile, Glass and Hardware are per unit;
// Total is the unit cost multiplied by quantity.
type Breakdown struct {
	Perimeter float64
	Area      float64
	Profile   float64
	Glass     float64
	Hardware  float64
	Unit      float64
	Total     float64
}

// Price applies the costing formula to a line with already resolved rates.
func Price(line Line, rates Rates) Breakdown {
	w := line.Width / 1000
	h := line.Height / 1000
	b := Breakdown{
		Perimeter: 2 * (w + h),
		Area:      w * h,
	}
	b.Profile = b.Perimeter * WastageFactor * rates.Profile
	b.Glass = b.Area * rates.Glass
	for _, c := range rates.Hardware {
		b.Hardware += c
	}
	b.Unit = b.Profile + b.Glass + b.Hardware
	b.Total = b.Unit * line.Quantity
	return b
}

// RateSource looks up inventory items by id. domain.TransactionView satisfies it.
type RateSource interface {
	FindInventoryItem(id string) (domain.InventoryItem, bool)
}

// Resolve looks up the rates for every reference of line. An unknown profile,
// glass or hardware id yields *domain.MissingReferenceError.
func Resolve(src RateSource, line Line) (Rates, error) {
	profile, ok := src.FindInventoryItem(line.ProfileID)
	if !ok {
		return Rates{}, &domain.MissingReferenceError{Role: domain.RoleProfileRef, ID: line.ProfileID}
	}
	glass, ok := src.FindInventoryItem(line.GlassID)
	if !ok {
		return Rates{}, &domain.MissingReferenceError{Role: domain.RoleGlassRef, ID: line.GlassID}
	}
	rates := Rates{Profile: profile.Cost, Glass: glass.Cost}
	for _, id := range line.HardwareIDs {
		hw, ok := src.FindInventoryItem(id)
		if !ok {
			return Rates{}, &domain.MissingReferenceError{Role: domain.RoleHardwareRef, ID: id}
		}
		rates.Hardware = append(rates.Hardware, hw.Cost)
	}
	return rates, nil
}

// Cost resolves and prices line.
func Cost(src RateSource, line Line) (Breakdown, error) {
	rates, err := Resolve(src, line)
	if err != nil {
		return Breakdown{}, err
	}
	return Price(line, rates), nil
}

// Totals are the quotation-level sums.
type Totals struct {
	TotalCost       float64
	FabricationCost float64
	GrandTotal      float64
}

// Summarize totals already-costed items.
func Summarize(items []domain.QuotationItem) Totals {
	var t Totals
	for _, item := range items {
		t.TotalCost += item.Cost
	}
	t.FabricationCost = t.TotalCost * FabricationRate
	t.GrandTotal = t.TotalCost + t.FabricationCost
	return t
}

// Apply writes totals onto q.
func (t Totals) Apply(q *domain.Quotation) {
	q.TotalCost = t.TotalCost
	q.FabricationCost = t.FabricationCost
	q.GrandTotal = t.GrandTotal
}

// CostItems prices every item in place and returns the quotation totals. The
// first missing reference aborts and leaves items unchanged.
func CostItems(src RateSource, items []domain.QuotationItem) ([]domain.QuotationItem, Totals, error) {
	out := make([]domain.QuotationItem, len(items))
	for i, item := range items {
		b, err := Cost(src, LineFromItem(item))
		if err != nil {
			return items, Totals{}, err
		}
		item.Cost = b.Total
		out[i] = item
	}
	return out, Summarize(out), nil
}

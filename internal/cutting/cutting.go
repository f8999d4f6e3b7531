// Package cutting derives the shop-floor cutting list of a sales order. The
// list is computed on demand from the order items and current inventory names
// and is never stored.
package cutting

import (
	"fmt"

	"upvcerp/internal/costing"
	"upvcerp/pkg/domain"
)

// Allowances in millimeters taken off the outer frame size.
const (
	SashAllowance  = 80
	BeadAllowance  = 120
	GlassAllowance = 100
)

// Part names used on cuts.
const (
	PartFrameTopBottom = "Top/Bottom Frame"
	PartFrameSide      = "Side Frame"
	PartSashTopBottom  = "Top/Bottom Sash"
	PartSashSide       = "Side Sash"
	PartBead           = "Bead"
)

// Placeholder names for references that no longer resolve.
const (
	UnknownHardware = "Unknown"
	UnknownGlass    = "Unknown Glass"
)

// Cut is one profile length to be cut Quantity times.
type Cut struct {
	Profile  string  `json:"profile"`
	Part     string  `json:"part"`
	Length   float64 `json:"length"`
	Quantity float64 `json:"quantity"`
}

// Pick is one hardware line of the pick list.
type Pick struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Pane is one glass size to be cut.
type Pane struct {
	Name     string  `json:"name"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Quantity float64 `json:"quantity"`
}

// Dimensions renders the pane size as "W mm x H mm".
func (p Pane) Dimensions() string {
	return fmt.Sprintf("%gmm x %gmm", p.Width, p.Height)
}

// List is the cutting list of one order.
type List struct {
	OrderID       string  `json:"orderId"`
	Cuts          []Cut   `json:"cuts"`
	Hardware      []Pick  `json:"hardware"`
	Glass         []Pane  `json:"glass"`
	ProfileLength float64 `json:"profileLength"`
}

// Cuts returns the profile cuts of one item. An item whose profile is not in
// inventory yields no cuts.
func Cuts(src costing.RateSource, item domain.QuotationItem) []Cut {
	profile, ok := src.FindInventoryItem(item.ProfileID)
	if !ok {
		return nil
	}
	pair := 2 * item.Quantity
	return []Cut{
		{Profile: profile.Name, Part: PartFrameTopBottom, Length: item.Width, Quantity: pair},
		{Profile: profile.Name, Part: PartFrameSide, Length: item.Height, Quantity: pair},
		{Profile: profile.Name, Part: PartSashTopBottom, Length: item.Width - SashAllowance, Quantity: pair},
		{Profile: profile.Name, Part: PartSashSide, Length: item.Height - SashAllowance, Quantity: pair},
		{Profile: profile.Name + " - Glazing Bead", Part: PartBead, Length: item.Width - BeadAllowance, Quantity: 4 * item.Quantity},
	}
}

// ForOrder builds the cutting list of order. Hardware is aggregated by
// inventory name, adding the item quantity once per reference.
func ForOrder(src costing.RateSource, order domain.SalesOrder) List {
	list := List{OrderID: order.ID, Cuts: []Cut{}, Hardware: []Pick{}, Glass: []Pane{}}
	picks := map[string]int{}
	for _, item := range order.Items {
		for _, c := range Cuts(src, item) {
			list.Cuts = append(list.Cuts, c)
			list.ProfileLength += c.Length * c.Quantity
		}
		for _, id := range item.HardwareIDs {
			name := UnknownHardware
			if hw, ok := src.FindInventoryItem(id); ok {
				name = hw.Name
			}
			if i, ok := picks[name]; ok {
				list.Hardware[i].Quantity += item.Quantity
				continue
			}
			picks[name] = len(list.Hardware)
			list.Hardware = append(list.Hardware, Pick{Name: name, Quantity: item.Quantity})
		}
		name := UnknownGlass
		if glass, ok := src.FindInventoryItem(item.GlassID); ok {
			name = glass.Name
		}
		list.Glass = append(list.Glass, Pane{
			Name:     name,
			Width:    item.Width - GlassAllowance,
			Height:   item.Height - GlassAllowance,
			Quantity: item.Quantity,
		})
	}
	return list
}

package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one priced quantity of an item headed for an order.
type Line struct {
	CartLineID uuid.UUID
	ItemID     uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	SellerID   uuid.UUID
	SellerName string
}

// Total is unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SellerGroup is the set of lines that becomes one order.
type SellerGroup struct {
	SellerID   uuid.UUID
	SellerName string
	Lines      []Line
}

// Total sums the group's line totals.
func (g SellerGroup) Total() decimal.Decimal {
	return ComputeTotal(g.Lines)
}

// CartLineIDs returns the cart lines backing the group, skipping lines that
// did not come from a cart.
func (g SellerGroup) CartLineIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Lines))
	for _, line := range g.Lines {
		if line.CartLineID != uuid.Nil {
			ids = append(ids, line.CartLineID)
		}
	}
	return ids
}

// GroupLinesBySeller partitions lines by seller. Groups follow the order in
// which each seller first appears and keep their lines in input order.
func GroupLinesBySeller(lines []Line) []SellerGroup {
	index := make(map[uuid.UUID]int, len(lines))
	groups := make([]SellerGroup, 0)
	for _, line := range lines {
		pos, ok := index[line.SellerID]
		if !ok {
			pos = len(groups)
			index[line.SellerID] = pos
			groups = append(groups, SellerGroup{SellerID: line.SellerID, SellerName: line.SellerName})
		}
		groups[pos].Lines = append(groups[pos].Lines, line)
	}
	return groups
}

// ComputeTotal sums unit price times quantity across lines.
func ComputeTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}

// Package costing provides the FIFO cost-basis engine: cost of goods
// sold and average buying price from purchase batches consumed oldest
// first. Read-only and advisory; it never mutates a ledger balance.
package costing

import (
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Lot is one purchase batch with its remaining quantity.
type Lot struct {
	BatchID  id.ID       `json:"batchId"`
	Date     types.Date  `json:"date"`
	Quantity types.Count `json:"quantity"`

	// Remaining starts at Quantity and shrinks as sales consume the lot.
	Remaining types.Count `json:"remaining"`

	UnitCost types.Money `json:"unitCost"`
}

// Consumption is the outcome of running sales against lots.
type Consumption struct {
	// TotalCOGS is the cost attributed to consumed units. Shortfall
	// units contribute zero cost, which understates COGS; the shortfall
	// is reported, not corrected.
	TotalCOGS types.Money `json:"totalCogs"`

	// UnitsSold counts every sold unit, including shortfall units.
	UnitsSold types.Count `json:"unitsSold"`

	// AverageBuyingPrice = TotalCOGS / UnitsSold, zero when nothing sold.
	AverageBuyingPrice types.Money `json:"averageBuyingPrice"`

	// Remaining lists lots that still hold quantity, oldest first.
	Remaining []Lot `json:"remaining"`

	// Shortfall is the quantity sold beyond all purchased batches.
	Shortfall types.Count `json:"shortfall"`
}

// Consume runs sale quantities (chronological order) against lots
// (oldest first), crossing batch boundaries as needed. Pure function:
// callers own loading the facts in the right order.
func Consume(lots []Lot, saleQuantities []types.Count) Consumption {
	// Work on a copy so callers keep their slice.
	working := make([]Lot, len(lots))
	copy(working, lots)

	out := Consumption{TotalCOGS: types.ZeroMoney()}
	next := 0 // index of the oldest lot with remaining quantity

	for _, qty := range saleQuantities {
		out.UnitsSold += qty
		need := qty

		for need > 0 && next < len(working) {
			lot := &working[next]
			if lot.Remaining <= 0 {
				next++
				continue
			}

			take := need
			if take > lot.Remaining {
				take = lot.Remaining
			}

			out.TotalCOGS = out.TotalCOGS.Add(lot.UnitCost.Mul(types.NewMoney(float64(take))))
			lot.Remaining -= take
			need -= take
		}

		// Sold more than ever purchased: the rest carries zero cost.
		if need > 0 {
			out.Shortfall += need
		}
	}

	if out.UnitsSold > 0 {
		out.AverageBuyingPrice = out.TotalCOGS.Div(types.NewMoney(float64(out.UnitsSold)))
	} else {
		out.AverageBuyingPrice = types.ZeroMoney()
	}

	for _, lot := range working {
		if lot.Remaining > 0 {
			out.Remaining = append(out.Remaining, lot)
		}
	}

	return out
}

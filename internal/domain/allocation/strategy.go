package allocation

import (
	"time"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
)

// Input is the snapshot a strategy works from. All fields are read from
// already-persisted facts inside one consistent transaction.
type Input struct {
	DriverID id.ID

	// Baselines per size, possibly empty.
	Baselines []Baseline

	// RefillSales are the driver's REFILL sales since the earliest
	// baseline (all refills when no baseline exists), oldest first.
	RefillSales []*events.SaleEvent

	// SizeOfProduct resolves a sale's product to its cylinder size.
	SizeOfProduct map[id.ID]id.ID

	// DriverClosingCylinder is the driver's current aggregate cylinder
	// receivable from the receivables ledger.
	DriverClosingCylinder types.Count

	// TenantTotalCylinders is the sum of all drivers' closing cylinder
	// receivables for the tenant.
	TenantTotalCylinders types.Count

	// ActiveSizes lists the tenant's active sizes in stable label order.
	ActiveSizes []id.ID

	// EmptyStockBySize is the current empty-cylinder stock per size.
	EmptyStockBySize map[id.ID]types.Count
}

// Strategy is one rung of the fallback chain. Allocate returns its
// per-size quantities and whether the strategy was applicable; an
// inapplicable strategy passes the input to the next rung. Keeping the
// chain as an explicit ordered list keeps the fallback order auditable
// and each rung independently testable.
type Strategy interface {
	Name() string
	Allocate(in Input) (map[id.ID]types.Count, bool)
}

// baselineStrategy layers refill deltas onto established baselines.
// Applicable whenever the driver has at least one baseline.
type baselineStrategy struct{}

func (baselineStrategy) Name() string { return "baseline" }

func (baselineStrategy) Allocate(in Input) (map[id.ID]types.Count, bool) {
	if len(in.Baselines) == 0 {
		return nil, false
	}

	totals := make(map[id.ID]types.Count, len(in.Baselines))
	setAt := make(map[id.ID]time.Time, len(in.Baselines))
	for _, b := range in.Baselines {
		totals[b.CylinderSizeID] = b.Quantity
		setAt[b.CylinderSizeID] = b.SetAt
	}

	for _, sale := range in.RefillSales {
		sizeID, ok := in.SizeOfProduct[sale.ProductID]
		if !ok {
			continue
		}
		// A size's deltas only accrue after its baseline was set; sizes
		// with no baseline accrue from zero.
		if anchor, ok := setAt[sizeID]; ok && sale.CreatedAt.Before(anchor) {
			continue
		}
		totals[sizeID] += sale.Quantity - sale.CylindersDeposited
	}

	// A fully-settled size is omitted, not shown as zero.
	for sizeID, qty := range totals {
		if !qty.IsPositive() {
			delete(totals, sizeID)
		}
	}

	return totals, true
}

// proportionalStrategy splits the driver total by each size's share of
// empty stock, weighted by the driver's share of the tenant's total
// cylinder receivables. Floor division; remainders are dropped, not
// redistributed.
type proportionalStrategy struct{}

func (proportionalStrategy) Name() string { return "proportional" }

func (proportionalStrategy) Allocate(in Input) (map[id.ID]types.Count, bool) {
	if in.TenantTotalCylinders <= 0 {
		return nil, false
	}

	totals := make(map[id.ID]types.Count, len(in.ActiveSizes))
	for _, sizeID := range in.ActiveSizes {
		stock := in.EmptyStockBySize[sizeID]
		if stock <= 0 {
			continue
		}
		share := int64(stock) * int64(in.DriverClosingCylinder) / int64(in.TenantTotalCylinders)
		if share > 0 {
			totals[sizeID] = types.Count(share)
		}
	}

	return totals, true
}

// equalStrategy splits the driver total evenly across active sizes when
// there is no receivables signal to weight by.
type equalStrategy struct{}

func (equalStrategy) Name() string { return "equal" }

func (equalStrategy) Allocate(in Input) (map[id.ID]types.Count, bool) {
	if in.DriverClosingCylinder == 0 || len(in.ActiveSizes) == 0 {
		return nil, false
	}

	per := int64(in.DriverClosingCylinder) / int64(len(in.ActiveSizes))
	if per <= 0 {
		return map[id.ID]types.Count{}, true
	}

	totals := make(map[id.ID]types.Count, len(in.ActiveSizes))
	for _, sizeID := range in.ActiveSizes {
		totals[sizeID] = types.Count(per)
	}
	return totals, true
}

// defaultStrategies is the production fallback order.
func defaultStrategies() []Strategy {
	return []Strategy{
		baselineStrategy{},
		proportionalStrategy{},
		equalStrategy{},
	}
}

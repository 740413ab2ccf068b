// Package stock provides the daily stock ledger: authoritative closing
// balances of full cylinders per product and empty cylinders per size,
// carried forward day over day from the event store.
package stock

import (
	"time"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Balance is the full-cylinder closing balance of one product on one
// day. Exactly one row exists per (tenant, product, date); recomputation
// overwrites, never duplicates.
type Balance struct {
	TenantID  id.ID      `db:"tenant_id" json:"tenantId"`
	ProductID id.ID      `db:"product_id" json:"productId"`
	Date      types.Date `db:"balance_date" json:"date"`

	OpeningFull  types.Count `db:"opening_full" json:"openingFull"`
	PurchasesQty types.Count `db:"purchases_qty" json:"purchasesQty"`

	// SalesQty counts both PACKAGE and REFILL sales; both deplete full
	// stock.
	SalesQty types.Count `db:"sales_qty" json:"salesQty"`

	ClosingFull types.Count `db:"closing_full" json:"closingFull"`

	// ClosingRaw is the pre-clamp value. When negative it records the
	// shortfall the clamp would otherwise hide.
	ClosingRaw types.Count `db:"closing_raw" json:"closingRaw"`

	ComputedAt time.Time `db:"computed_at" json:"computedAt"`
}

// Clamped reports whether the closing value was floored at zero.
func (b *Balance) Clamped() bool {
	return b.ClosingRaw.IsNegative()
}

// EmptyBalance is the empty-cylinder closing balance of one cylinder
// size on one day. Empties are size-level: they are interchangeable
// across products and companies.
type EmptyBalance struct {
	TenantID       id.ID      `db:"tenant_id" json:"tenantId"`
	CylinderSizeID id.ID      `db:"cylinder_size_id" json:"cylinderSizeId"`
	Date           types.Date `db:"balance_date" json:"date"`

	OpeningEmpty types.Count `db:"opening_empty" json:"openingEmpty"`

	// RefillSalesQty - each refill sale returns one empty per unit sold.
	RefillSalesQty types.Count `db:"refill_sales_qty" json:"refillSalesQty"`

	// EmptyNetBuySell is incoming minus outgoing COMPLETED empty
	// shipments for the day.
	EmptyNetBuySell types.Count `db:"empty_net_buy_sell" json:"emptyNetBuySell"`

	ClosingEmpty types.Count `db:"closing_empty" json:"closingEmpty"`
	ClosingRaw   types.Count `db:"closing_raw" json:"closingRaw"`

	ComputedAt time.Time `db:"computed_at" json:"computedAt"`
}

// Clamped reports whether the closing value was floored at zero.
func (b *EmptyBalance) Clamped() bool {
	return b.ClosingRaw.IsNegative()
}

// Package receivable provides the driver receivables ledger: daily
// closing balances of cash and cylinders each driver owes, carried
// forward from sales activity.
package receivable

import (
	"time"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Balance is one driver's receivable position at the close of one day.
// Exactly one row exists per (tenant, driver, date).
//
// Unlike stock, closing values are persisted unclamped: a negative
// balance is a real state (the driver overpaid or returned extra
// cylinders) and must not be silently floored.
type Balance struct {
	TenantID id.ID      `db:"tenant_id" json:"tenantId"`
	DriverID id.ID      `db:"driver_id" json:"driverId"`
	Date     types.Date `db:"balance_date" json:"date"`

	// CashChange = revenue - cash deposited - discounts for the day.
	CashChange types.Money `db:"cash_change" json:"cashChange"`

	// CylinderChange = refill quantity - cylinders deposited for the day.
	CylinderChange types.Count `db:"cylinder_change" json:"cylinderChange"`

	ClosingCash     types.Money `db:"closing_cash" json:"closingCash"`
	ClosingCylinder types.Count `db:"closing_cylinder" json:"closingCylinder"`

	ComputedAt time.Time `db:"computed_at" json:"computedAt"`
}

// DayActivity is the driver's sales summed over one day.
type DayActivity struct {
	Revenue            types.Money
	CashDeposited      types.Money
	Discount           types.Money
	RefillQty          types.Count
	CylindersDeposited types.Count
}

// CashChange returns revenue - deposits - discounts.
func (a DayActivity) CashChange() types.Money {
	return a.Revenue.Sub(a.CashDeposited).Sub(a.Discount)
}

// CylinderChange returns refill quantity - cylinders deposited.
func (a DayActivity) CylinderChange() types.Count {
	return a.RefillQty - a.CylindersDeposited
}

// IsZero reports whether the day had no receivable-affecting activity.
func (a DayActivity) IsZero() bool {
	return a.Revenue.IsZero() && a.CashDeposited.IsZero() && a.Discount.IsZero() &&
		a.RefillQty.IsZero() && a.CylindersDeposited.IsZero()
}

// Package events defines the immutable transactional facts the ledgers
// consume: sales and shipment batches. Facts are a closed set of tagged
// types validated exhaustively at ingestion; the engines downstream
// assume well-formed input.
package events

import (
	"context"
	"time"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// SaleType distinguishes the two sale shapes.
type SaleType string

const (
	// SalePackage - a full cylinder sold outright, no empty returned.
	SalePackage SaleType = "PACKAGE"

	// SaleRefill - customer exchanges an empty for a full; depletes full
	// stock and returns one empty per unit sold.
	SaleRefill SaleType = "REFILL"
)

// SaleEvent is an immutable sale fact recorded by the sales API.
type SaleEvent struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`
	DriverID id.ID `db:"driver_id" json:"driverId"`

	ProductID id.ID    `db:"product_id" json:"productId"`
	Type      SaleType `db:"sale_type" json:"saleType"`

	Quantity  types.Count `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Discount  types.Money `db:"discount" json:"discount"`

	// CashDeposited is money the driver settled against this sale.
	CashDeposited types.Money `db:"cash_deposited" json:"cashDeposited"`

	// CylindersDeposited is empties the driver returned with this sale.
	CylindersDeposited types.Count `db:"cylinders_deposited" json:"cylindersDeposited"`

	SaleDate  types.Date `db:"sale_date" json:"saleDate"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// Revenue returns quantity x unit price.
func (e *SaleEvent) Revenue() types.Money {
	return e.UnitPrice.Mul(types.NewMoney(float64(e.Quantity)))
}

// RefillQuantity returns the quantity when the sale is a refill, zero
// otherwise.
func (e *SaleEvent) RefillQuantity() types.Count {
	if e.Type == SaleRefill {
		return e.Quantity
	}
	return 0
}

// Validate checks the fact before it enters the event store.
func (e *SaleEvent) Validate(ctx context.Context) error {
	if id.IsNil(e.TenantID) {
		return apperror.NewValidation("tenant_id is required").
			WithDetail("field", "tenant_id")
	}
	if id.IsNil(e.DriverID) {
		return apperror.NewValidation("driver_id is required").
			WithDetail("field", "driver_id")
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewValidation("product_id is required").
			WithDetail("field", "product_id")
	}
	if e.Type != SalePackage && e.Type != SaleRefill {
		return apperror.NewValidation("sale_type must be PACKAGE or REFILL").
			WithDetail("field", "sale_type").
			WithDetail("value", string(e.Type))
	}
	if !e.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", e.Quantity.Int64())
	}
	if e.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit_price must not be negative").
			WithDetail("field", "unit_price")
	}
	if e.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discount")
	}
	if e.CashDeposited.IsNegative() {
		return apperror.NewValidation("cash_deposited must not be negative").
			WithDetail("field", "cash_deposited")
	}
	if e.CylindersDeposited.IsNegative() {
		return apperror.NewValidation("cylinders_deposited must not be negative").
			WithDetail("field", "cylinders_deposited")
	}
	if e.SaleDate.IsZero() {
		return apperror.NewValidation("sale_date is required").
			WithDetail("field", "sale_date")
	}
	return nil
}

package events

import (
	"context"
	"time"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// SaleRepository is the read/write surface of the sale event store.
type SaleRepository interface {
	// Record validates and appends sale facts. Bulk backfills go through
	// the COPY path when called inside a transaction.
	Record(ctx context.Context, sales []*SaleEvent) error

	// ListByTenantDate returns all sales of the tenant on the given day.
	ListByTenantDate(ctx context.Context, tenantID id.ID, date types.Date) ([]*SaleEvent, error)

	// ListByDriverDate returns the driver's sales on the given day.
	ListByDriverDate(ctx context.Context, tenantID, driverID id.ID, date types.Date) ([]*SaleEvent, error)

	// ListRefillsByDriverSince returns the driver's REFILL sales recorded
	// on or after the instant, oldest first. The allocation engine layers
	// these onto the baseline.
	ListRefillsByDriverSince(ctx context.Context, tenantID, driverID id.ID, since time.Time) ([]*SaleEvent, error)

	// ListByProductThrough returns the product's sales up to and
	// including asOf, oldest first (FIFO consumption order).
	ListByProductThrough(ctx context.Context, tenantID, productID id.ID, asOf types.Date) ([]*SaleEvent, error)
}

// ShipmentRepository is the read/write surface of the shipment store.
type ShipmentRepository interface {
	// Record validates and appends shipment facts.
	Record(ctx context.Context, batches []*ShipmentBatch) error

	// ListCompletedByTenantDate returns COMPLETED shipments of the tenant
	// on the given day.
	ListCompletedByTenantDate(ctx context.Context, tenantID id.ID, date types.Date) ([]*ShipmentBatch, error)

	// ListPurchasesThrough returns COMPLETED incoming FULL batches for
	// the product up to and including asOf, oldest first. These are the
	// FIFO cost basis.
	ListPurchasesThrough(ctx context.Context, tenantID, productID id.ID, asOf types.Date) ([]*ShipmentBatch, error)
}

package events

import (
	"context"
	"time"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Direction of a shipment relative to the tenant.
type Direction string

const (
	DirectionIncoming Direction = "INCOMING"
	DirectionOutgoing Direction = "OUTGOING"
)

// Content distinguishes full-cylinder purchases from empty-cylinder
// exchanges with the supplier.
type Content string

const (
	ContentFull  Content = "FULL"
	ContentEmpty Content = "EMPTY"
)

// ShipmentStatus - only COMPLETED shipments count toward balances.
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "PENDING"
	ShipmentCompleted ShipmentStatus = "COMPLETED"
	ShipmentCancelled ShipmentStatus = "CANCELLED"
)

// ShipmentBatch is an immutable purchase/transfer fact. Incoming FULL
// batches are the FIFO cost basis; EMPTY batches feed the empty-stock
// net buy/sell term.
type ShipmentBatch struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// ProductID is set for FULL shipments; EMPTY shipments are size-level.
	ProductID      id.ID `db:"product_id" json:"productId"`
	CylinderSizeID id.ID `db:"cylinder_size_id" json:"cylinderSizeId"`

	Quantity types.Count `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	Direction Direction      `db:"direction" json:"direction"`
	Content   Content        `db:"content" json:"content"`
	Status    ShipmentStatus `db:"status" json:"status"`

	ShipmentDate types.Date `db:"shipment_date" json:"shipmentDate"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// Counts reports whether the shipment contributes to balances.
func (b *ShipmentBatch) Counts() bool {
	return b.Status == ShipmentCompleted
}

// SignedQuantity returns quantity for incoming, negated for outgoing.
func (b *ShipmentBatch) SignedQuantity() types.Count {
	if b.Direction == DirectionOutgoing {
		return b.Quantity.Neg()
	}
	return b.Quantity
}

// Validate checks the fact before it enters the event store.
func (b *ShipmentBatch) Validate(ctx context.Context) error {
	if id.IsNil(b.TenantID) {
		return apperror.NewValidation("tenant_id is required").
			WithDetail("field", "tenant_id")
	}
	switch b.Content {
	case ContentFull:
		if id.IsNil(b.ProductID) {
			return apperror.NewValidation("product_id is required for FULL shipments").
				WithDetail("field", "product_id")
		}
	case ContentEmpty:
		if id.IsNil(b.CylinderSizeID) {
			return apperror.NewValidation("cylinder_size_id is required for EMPTY shipments").
				WithDetail("field", "cylinder_size_id")
		}
	default:
		return apperror.NewValidation("content must be FULL or EMPTY").
			WithDetail("field", "content").
			WithDetail("value", string(b.Content))
	}
	if b.Direction != DirectionIncoming && b.Direction != DirectionOutgoing {
		return apperror.NewValidation("direction must be INCOMING or OUTGOING").
			WithDetail("field", "direction").
			WithDetail("value", string(b.Direction))
	}
	switch b.Status {
	case ShipmentPending, ShipmentCompleted, ShipmentCancelled:
	default:
		return apperror.NewValidation("unknown shipment status").
			WithDetail("field", "status").
			WithDetail("value", string(b.Status))
	}
	if !b.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", b.Quantity.Int64())
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewValidation("unit_cost must not be negative").
			WithDetail("field", "unit_cost")
	}
	if b.ShipmentDate.IsZero() {
		return apperror.NewValidation("shipment_date is required").
			WithDetail("field", "shipment_date")
	}
	return nil
}

package event_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
	"gasledger/internal/infrastructure/storage/postgres"
)

const shipmentBatchesTable = "shipment_batches"

// ShipmentRepo implements events.ShipmentRepository.
type ShipmentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewShipmentRepo creates a new shipment batch repository.
func NewShipmentRepo(txm *postgres.TxManager) *ShipmentRepo {
	return &ShipmentRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var shipmentColumns = []string{
	"id", "tenant_id", "product_id", "cylinder_size_id",
	"quantity", "unit_cost",
	"direction", "content", "status",
	"shipment_date", "created_at",
}

// Select list maps the NULLable reference columns back onto the zero
// uuid the model uses.
var shipmentSelectColumns = []string{
	"id", "tenant_id",
	"COALESCE(product_id, '00000000-0000-0000-0000-000000000000') AS product_id",
	"COALESCE(cylinder_size_id, '00000000-0000-0000-0000-000000000000') AS cylinder_size_id",
	"quantity", "unit_cost",
	"direction", "content", "status",
	"shipment_date", "created_at",
}

// Record validates and appends shipment facts.
func (r *ShipmentRepo) Record(ctx context.Context, batches []*events.ShipmentBatch) error {
	if len(batches) == 0 {
		return nil
	}
	for _, b := range batches {
		if err := b.Validate(ctx); err != nil {
			return err
		}
		if id.IsNil(b.ID) {
			b.ID = id.New()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
	}

	q := r.builder.Insert(shipmentBatchesTable).Columns(shipmentColumns...)
	for _, b := range batches {
		q = q.Values(
			b.ID, b.TenantID, nilIfEmpty(b.ProductID), nilIfEmpty(b.CylinderSizeID),
			b.Quantity, b.UnitCost,
			b.Direction, b.Content, b.Status,
			b.ShipmentDate.Time(), b.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert shipment batches: %w", err)
	}
	return nil
}

// nilIfEmpty maps the zero uuid to SQL NULL. EMPTY shipments have no
// product, FULL shipments have no size.
func nilIfEmpty(v id.ID) any {
	if id.IsNil(v) {
		return nil
	}
	return v
}

// ListCompletedByTenantDate returns COMPLETED shipments of the tenant on
// the given day.
func (r *ShipmentRepo) ListCompletedByTenantDate(ctx context.Context, tenantID id.ID, date types.Date) ([]*events.ShipmentBatch, error) {
	q := r.builder.Select(shipmentSelectColumns...).
		From(shipmentBatchesTable).
		Where(squirrel.Eq{
			"tenant_id":     tenantID,
			"shipment_date": date.Time(),
			"status":        events.ShipmentCompleted,
		}).
		OrderBy("created_at ASC")

	return r.selectBatches(ctx, q)
}

// ListPurchasesThrough returns COMPLETED incoming FULL batches for the
// product up to and including asOf, oldest first.
func (r *ShipmentRepo) ListPurchasesThrough(ctx context.Context, tenantID, productID id.ID, asOf types.Date) ([]*events.ShipmentBatch, error) {
	q := r.builder.Select(shipmentSelectColumns...).
		From(shipmentBatchesTable).
		Where(squirrel.Eq{
			"tenant_id":  tenantID,
			"product_id": productID,
			"direction":  events.DirectionIncoming,
			"content":    events.ContentFull,
			"status":     events.ShipmentCompleted,
		}).
		Where(squirrel.LtOrEq{"shipment_date": asOf.Time()}).
		OrderBy("shipment_date ASC", "created_at ASC")

	return r.selectBatches(ctx, q)
}

func (r *ShipmentRepo) selectBatches(ctx context.Context, q squirrel.SelectBuilder) ([]*events.ShipmentBatch, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*events.ShipmentBatch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select shipment batches: %w", err)
	}
	return batches, nil
}

// Ensure interface compliance.
var _ events.ShipmentRepository = (*ShipmentRepo)(nil)

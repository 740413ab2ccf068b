// Package event_repo provides PostgreSQL storage for the immutable
// event store. Events are append-only: no update or delete surface
// exists, corrections are recorded as new facts.
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

const saleEventsTable = "sale_events"

// Bulk backfills above this size go through the COPY protocol instead
// of a multi-row INSERT.
const copyThreshold = 50

// SaleRepo implements events.SaleRepository.
type SaleRepo struct {
	txm     *postgres.TxManager
	batch   *postgres.BatchInserter
	builder squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sale event repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txm:     txm,
		batch:   postgres.NewBatchInserter(txm),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var saleColumns = []string{
	"id", "tenant_id", "driver_id", "product_id", "sale_type",
	"quantity", "unit_price", "discount",
	"cash_deposited", "cylinders_deposited",
	"sale_date", "created_at",
}

// Record validates and appends sale facts.
func (r *SaleRepo) Record(ctx context.Context, sales []*events.SaleEvent) error {
	if len(sales) == 0 {
		return nil
	}
	for _, s := range sales {
		if err := s.Validate(ctx); err != nil {
			return err
		}
		if id.IsNil(s.ID) {
			s.ID = id.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
	}

	if len(sales) >= copyThreshold && r.txm.GetTx(ctx) != nil {
		return r.recordCopy(ctx, sales)
	}

	q := r.builder.Insert(saleEventsTable).Columns(saleColumns...)
	for _, s := range sales {
		q = q.Values(
			s.ID, s.TenantID, s.DriverID, s.ProductID, s.Type,
			s.Quantity, s.UnitPrice, s.Discount,
			s.CashDeposited, s.CylindersDeposited,
			s.SaleDate.Time(), s.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale events: %w", err)
	}
	return nil
}

func (r *SaleRepo) recordCopy(ctx context.Context, sales []*events.SaleEvent) error {
	rows := make([][]any, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, []any{
			s.ID, s.TenantID, s.DriverID, s.ProductID, string(s.Type),
			s.Quantity.Int64(), s.UnitPrice, s.Discount,
			s.CashDeposited, s.CylindersDeposited.Int64(),
			s.SaleDate.Time(), s.CreatedAt,
		})
	}

	n, err := r.batch.CopyFromSlice(ctx, saleEventsTable, saleColumns, rows)
	if err != nil {
		return fmt.Errorf("copy sale events: %w", err)
	}
	if n != int64(len(sales)) {
		return fmt.Errorf("copy sale events: wrote %d of %d rows", n, len(sales))
	}
	return nil
}

// ListByTenantDate returns all sales of the tenant on the given day.
func (r *SaleRepo) ListByTenantDate(ctx context.Context, tenantID id.ID, date types.Date) ([]*events.SaleEvent, error) {
	q := r.builder.Select(saleColumns...).
		From(saleEventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "sale_date": date.Time()}).
		OrderBy("created_at ASC")

	return r.selectSales(ctx, q)
}

// ListByDriverDate returns the driver's sales on the given day.
func (r *SaleRepo) ListByDriverDate(ctx context.Context, tenantID, driverID id.ID, date types.Date) ([]*events.SaleEvent, error) {
	q := r.builder.Select(saleColumns...).
		From(saleEventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID, "sale_date": date.Time()}).
		OrderBy("created_at ASC")

	return r.selectSales(ctx, q)
}

// ListRefillsByDriverSince returns the driver's REFILL sales recorded on
// or after the instant, oldest first.
func (r *SaleRepo) ListRefillsByDriverSince(ctx context.Context, tenantID, driverID id.ID, since time.Time) ([]*events.SaleEvent, error) {
	q := r.builder.Select(saleColumns...).
		From(saleEventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID, "sale_type": events.SaleRefill}).
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at ASC")

	return r.selectSales(ctx, q)
}

// ListByProductThrough returns the product's sales up to and including
// asOf, oldest first.
func (r *SaleRepo) ListByProductThrough(ctx context.Context, tenantID, productID id.ID, asOf types.Date) ([]*events.SaleEvent, error) {
	q := r.builder.Select(saleColumns...).
		From(saleEventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		Where(squirrel.LtOrEq{"sale_date": asOf.Time()}).
		OrderBy("sale_date ASC", "created_at ASC")

	return r.selectSales(ctx, q)
}

func (r *SaleRepo) selectSales(ctx context.Context, q squirrel.SelectBuilder) ([]*events.SaleEvent, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sales []*events.SaleEvent
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale events: %w", err)
	}
	return sales, nil
}

// Ensure interface compliance.
var _ events.SaleRepository = (*SaleRepo)(nil)

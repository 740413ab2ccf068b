// Package baseline_repo provides PostgreSQL storage for driver size
// baselines.
package baseline_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/domain/allocation"
	"gasledger/internal/infrastructure/storage/postgres"
)

const baselinesTable = "allocation_baselines"

// BaselineRepo implements allocation.BaselineRepository.
type BaselineRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBaselineRepo creates a new baseline repository.
func NewBaselineRepo(txm *postgres.TxManager) *BaselineRepo {
	return &BaselineRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var baselineColumns = []string{
	"tenant_id", "driver_id", "cylinder_size_id", "quantity", "set_at",
}

// Seed writes baselines for a driver. Onboarding is write-once: if any
// (driver, size) baseline already exists the whole call fails and
// nothing is written.
func (r *BaselineRepo) Seed(ctx context.Context, baselines []allocation.Baseline) error {
	if len(baselines) == 0 {
		return nil
	}

	q := r.builder.Insert(baselinesTable).Columns(baselineColumns...)
	for _, b := range baselines {
		q = q.Values(b.TenantID, b.DriverID, b.CylinderSizeID, b.Quantity, b.SetAt)
	}
	q = q.Suffix("ON CONFLICT (tenant_id, driver_id, cylinder_size_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	// Partial conflicts must not leave a partial seed behind, so the
	// rows-affected check runs inside a transaction.
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)
		tag, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("insert baselines: %w", err)
		}
		if tag.RowsAffected() != int64(len(baselines)) {
			b := baselines[0]
			return apperror.NewBaselineExists(b.DriverID.String(), b.CylinderSizeID.String())
		}
		return nil
	})
}

// Correct replaces a single baseline.
func (r *BaselineRepo) Correct(ctx context.Context, b allocation.Baseline) error {
	q := r.builder.Insert(baselinesTable).
		Columns(baselineColumns...).
		Values(b.TenantID, b.DriverID, b.CylinderSizeID, b.Quantity, b.SetAt).
		Suffix(`
			ON CONFLICT (tenant_id, driver_id, cylinder_size_id) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				set_at = EXCLUDED.set_at
		`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert baseline: %w", err)
	}
	return nil
}

// ListByDriver returns the driver's baselines.
func (r *BaselineRepo) ListByDriver(ctx context.Context, tenantID, driverID id.ID) ([]allocation.Baseline, error) {
	q := r.builder.Select(baselineColumns...).
		From(baselinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID}).
		OrderBy("cylinder_size_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var baselines []allocation.Baseline
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &baselines, sql, args...); err != nil {
		return nil, fmt.Errorf("select baselines: %w", err)
	}
	return baselines, nil
}

// Ensure interface compliance.
var _ allocation.BaselineRepository = (*BaselineRepo)(nil)

package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/infrastructure/storage/postgres"
)

const receivableBalancesTable = "ledger_receivable_balances"

// ReceivableRepo implements receivable.Repository.
type ReceivableRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReceivableRepo creates a new receivables ledger repository.
func NewReceivableRepo(txm *postgres.TxManager) *ReceivableRepo {
	return &ReceivableRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var receivableColumns = []string{
	"tenant_id", "driver_id", "balance_date",
	"cash_change", "cylinder_change",
	"closing_cash", "closing_cylinder", "computed_at",
}

// GetLatestOnOrBefore returns the driver's most recent balance dated on
// or before date.
func (r *ReceivableRepo) GetLatestOnOrBefore(ctx context.Context, tenantID, driverID id.ID, date types.Date) (*receivable.Balance, error) {
	q := r.builder.Select(receivableColumns...).
		From(receivableBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID}).
		Where(squirrel.LtOrEq{"balance_date": date.Time()}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getBalance(ctx, q)
}

// GetEarliest returns the driver's first ever recorded balance.
func (r *ReceivableRepo) GetEarliest(ctx context.Context, tenantID, driverID id.ID) (*receivable.Balance, error) {
	q := r.builder.Select(receivableColumns...).
		From(receivableBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID}).
		OrderBy("balance_date ASC").
		Limit(1)

	return r.getBalance(ctx, q)
}

// GetCurrent returns the driver's most recent balance.
func (r *ReceivableRepo) GetCurrent(ctx context.Context, tenantID, driverID id.ID) (*receivable.Balance, error) {
	q := r.builder.Select(receivableColumns...).
		From(receivableBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "driver_id": driverID}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getBalance(ctx, q)
}

func (r *ReceivableRepo) getBalance(ctx context.Context, q squirrel.SelectBuilder) (*receivable.Balance, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balance receivable.Balance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receivable balance: %w", err)
	}
	return &balance, nil
}

// Upsert writes the day's balance for one driver.
func (r *ReceivableRepo) Upsert(ctx context.Context, b receivable.Balance) error {
	q := r.builder.Insert(receivableBalancesTable).
		Columns(receivableColumns...).
		Values(
			b.TenantID, b.DriverID, b.Date.Time(),
			b.CashChange, b.CylinderChange,
			b.ClosingCash, b.ClosingCylinder, b.ComputedAt,
		).
		Suffix(`
			ON CONFLICT (tenant_id, driver_id, balance_date) DO UPDATE SET
				cash_change = EXCLUDED.cash_change,
				cylinder_change = EXCLUDED.cylinder_change,
				closing_cash = EXCLUDED.closing_cash,
				closing_cylinder = EXCLUDED.closing_cylinder,
				computed_at = EXCLUDED.computed_at
		`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert receivable balance: %w", err)
	}
	return nil
}

// SumCurrentCylinders sums every driver's latest closing cylinder
// balance for the tenant.
func (r *ReceivableRepo) SumCurrentCylinders(ctx context.Context, tenantID id.ID) (types.Count, error) {
	sql := `
		SELECT COALESCE(SUM(closing_cylinder), 0)
		FROM (
			SELECT DISTINCT ON (driver_id) closing_cylinder
			FROM ledger_receivable_balances
			WHERE tenant_id = $1
			ORDER BY driver_id, balance_date DESC
		) latest
	`

	var total types.Count
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &total, sql, tenantID); err != nil {
		return 0, fmt.Errorf("sum current cylinders: %w", err)
	}
	return total, nil
}

// ListDriversWithActivity returns driver ids with sales on the date or
// any balance history.
func (r *ReceivableRepo) ListDriversWithActivity(ctx context.Context, tenantID id.ID, date types.Date) ([]id.ID, error) {
	sql := `
		SELECT DISTINCT driver_id FROM (
			SELECT driver_id FROM sale_events
			WHERE tenant_id = $1 AND sale_date = $2
			UNION
			SELECT driver_id FROM ledger_receivable_balances
			WHERE tenant_id = $1
		) drivers
		ORDER BY driver_id
	`

	var ids []id.ID
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &ids, sql, tenantID, date.Time()); err != nil {
		return nil, fmt.Errorf("list drivers with activity: %w", err)
	}
	return ids, nil
}

// Ensure interface compliance.
var _ receivable.Repository = (*ReceivableRepo)(nil)

// Package ledger_repo provides PostgreSQL implementations for the daily
// ledgers. Balance writes are transactional insert-or-update on the
// composite key, so concurrent recomputations of the same (tenant,
// entity, date) cannot duplicate rows and retries are safe.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/internal/infrastructure/storage/postgres"
)

const (
	stockBalancesTable = "ledger_stock_balances"
	emptyBalancesTable = "ledger_empty_balances"
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var stockColumns = []string{
	"tenant_id", "product_id", "balance_date",
	"opening_full", "purchases_qty", "sales_qty",
	"closing_full", "closing_raw", "computed_at",
}

// GetLatestBefore returns the most recent balance strictly before date.
func (r *StockRepo) GetLatestBefore(ctx context.Context, tenantID, productID id.ID, date types.Date) (*stock.Balance, error) {
	q := r.builder.Select(stockColumns...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		Where(squirrel.Lt{"balance_date": date.Time()}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getBalance(ctx, q)
}

// GetCurrent returns the most recent balance, or nil.
func (r *StockRepo) GetCurrent(ctx context.Context, tenantID, productID id.ID) (*stock.Balance, error) {
	q := r.builder.Select(stockColumns...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getBalance(ctx, q)
}

func (r *StockRepo) getBalance(ctx context.Context, q squirrel.SelectBuilder) (*stock.Balance, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balance stock.Balance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &balance, nil
}

// UpsertBalances writes the day's product balances.
func (r *StockRepo) UpsertBalances(ctx context.Context, balances []stock.Balance) error {
	if len(balances) == 0 {
		return nil
	}

	q := r.builder.Insert(stockBalancesTable).Columns(stockColumns...)
	for _, b := range balances {
		q = q.Values(
			b.TenantID, b.ProductID, b.Date.Time(),
			b.OpeningFull, b.PurchasesQty, b.SalesQty,
			b.ClosingFull, b.ClosingRaw, b.ComputedAt,
		)
	}
	q = q.Suffix(`
		ON CONFLICT (tenant_id, product_id, balance_date) DO UPDATE SET
			opening_full = EXCLUDED.opening_full,
			purchases_qty = EXCLUDED.purchases_qty,
			sales_qty = EXCLUDED.sales_qty,
			closing_full = EXCLUDED.closing_full,
			closing_raw = EXCLUDED.closing_raw,
			computed_at = EXCLUDED.computed_at
	`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert stock balances: %w", err)
	}
	return nil
}

var emptyColumns = []string{
	"tenant_id", "cylinder_size_id", "balance_date",
	"opening_empty", "refill_sales_qty", "empty_net_buy_sell",
	"closing_empty", "closing_raw", "computed_at",
}

// GetLatestEmptyBefore returns the most recent empty balance strictly
// before date.
func (r *StockRepo) GetLatestEmptyBefore(ctx context.Context, tenantID, sizeID id.ID, date types.Date) (*stock.EmptyBalance, error) {
	q := r.builder.Select(emptyColumns...).
		From(emptyBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "cylinder_size_id": sizeID}).
		Where(squirrel.Lt{"balance_date": date.Time()}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getEmptyBalance(ctx, q)
}

// GetCurrentEmpty returns the most recent empty balance, or nil.
func (r *StockRepo) GetCurrentEmpty(ctx context.Context, tenantID, sizeID id.ID) (*stock.EmptyBalance, error) {
	q := r.builder.Select(emptyColumns...).
		From(emptyBalancesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "cylinder_size_id": sizeID}).
		OrderBy("balance_date DESC").
		Limit(1)

	return r.getEmptyBalance(ctx, q)
}

func (r *StockRepo) getEmptyBalance(ctx context.Context, q squirrel.SelectBuilder) (*stock.EmptyBalance, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balance stock.EmptyBalance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get empty balance: %w", err)
	}
	return &balance, nil
}

// GetCurrentEmptyAll returns the latest empty balance per size.
func (r *StockRepo) GetCurrentEmptyAll(ctx context.Context, tenantID id.ID) ([]*stock.EmptyBalance, error) {
	sql := `
		SELECT DISTINCT ON (cylinder_size_id)
			tenant_id, cylinder_size_id, balance_date,
			opening_empty, refill_sales_qty, empty_net_buy_sell,
			closing_empty, closing_raw, computed_at
		FROM ledger_empty_balances
		WHERE tenant_id = $1
		ORDER BY cylinder_size_id, balance_date DESC
	`

	var balances []*stock.EmptyBalance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, tenantID); err != nil {
		return nil, fmt.Errorf("select current empty balances: %w", err)
	}
	return balances, nil
}

// UpsertEmptyBalances writes the day's size balances.
func (r *StockRepo) UpsertEmptyBalances(ctx context.Context, balances []stock.EmptyBalance) error {
	if len(balances) == 0 {
		return nil
	}

	q := r.builder.Insert(emptyBalancesTable).Columns(emptyColumns...)
	for _, b := range balances {
		q = q.Values(
			b.TenantID, b.CylinderSizeID, b.Date.Time(),
			b.OpeningEmpty, b.RefillSalesQty, b.EmptyNetBuySell,
			b.ClosingEmpty, b.ClosingRaw, b.ComputedAt,
		)
	}
	q = q.Suffix(`
		ON CONFLICT (tenant_id, cylinder_size_id, balance_date) DO UPDATE SET
			opening_empty = EXCLUDED.opening_empty,
			refill_sales_qty = EXCLUDED.refill_sales_qty,
			empty_net_buy_sell = EXCLUDED.empty_net_buy_sell,
			closing_empty = EXCLUDED.closing_empty,
			closing_raw = EXCLUDED.closing_raw,
			computed_at = EXCLUDED.computed_at
	`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert empty balances: %w", err)
	}
	return nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)

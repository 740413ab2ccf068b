package stock

import (
	"context"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Repository persists daily stock balances. Upserts must be transactional
// insert-or-update on the composite key so concurrent recomputations of
// the same key cannot duplicate rows.
type Repository interface {
	// GetLatestBefore returns the most recent full-cylinder balance of
	// the product dated strictly before date, or nil if none exists.
	GetLatestBefore(ctx context.Context, tenantID, productID id.ID, date types.Date) (*Balance, error)

	// GetCurrent returns the most recent full-cylinder balance, or nil.
	GetCurrent(ctx context.Context, tenantID, productID id.ID) (*Balance, error)

	// UpsertBalances writes the day's product balances, overwriting any
	// existing row per (tenant, product, date).
	UpsertBalances(ctx context.Context, balances []Balance) error

	// GetLatestEmptyBefore returns the most recent empty-cylinder balance
	// of the size dated strictly before date, or nil.
	GetLatestEmptyBefore(ctx context.Context, tenantID, sizeID id.ID, date types.Date) (*EmptyBalance, error)

	// GetCurrentEmpty returns the most recent empty-cylinder balance, or nil.
	GetCurrentEmpty(ctx context.Context, tenantID, sizeID id.ID) (*EmptyBalance, error)

	// GetCurrentEmptyAll returns the latest empty balance per active size
	// for the tenant. The allocation engine's proportional fallback
	// weights sizes by these totals.
	GetCurrentEmptyAll(ctx context.Context, tenantID id.ID) ([]*EmptyBalance, error)

	// UpsertEmptyBalances writes the day's size balances, overwriting any
	// existing row per (tenant, size, date).
	UpsertEmptyBalances(ctx context.Context, balances []EmptyBalance) error
}

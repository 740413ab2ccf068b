package receivable

import (
	"context"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Repository persists driver receivable balances.
type Repository interface {
	// GetLatestOnOrBefore returns the driver's most recent balance dated
	// on or before date, or nil if none exists.
	GetLatestOnOrBefore(ctx context.Context, tenantID, driverID id.ID, date types.Date) (*Balance, error)

	// GetEarliest returns the driver's first ever recorded balance, or
	// nil. This is the onboarding anchor: a driver's very first balance
	// is an initial value, not a delta.
	GetEarliest(ctx context.Context, tenantID, driverID id.ID) (*Balance, error)

	// GetCurrent returns the driver's most recent balance, or nil.
	GetCurrent(ctx context.Context, tenantID, driverID id.ID) (*Balance, error)

	// Upsert writes the day's balance, overwriting any existing row per
	// (tenant, driver, date).
	Upsert(ctx context.Context, balance Balance) error

	// SumCurrentCylinders returns the sum of every driver's latest
	// closing cylinder balance for the tenant. The allocation engine's
	// proportional fallback divides by this total.
	SumCurrentCylinders(ctx context.Context, tenantID id.ID) (types.Count, error)

	// ListDriversWithActivity returns driver ids having sales on the
	// date or any balance row, so the batch runner knows which units to
	// recompute.
	ListDriversWithActivity(ctx context.Context, tenantID id.ID, date types.Date) ([]id.ID, error)
}

// Package allocation distributes a driver's aggregate cylinder
// receivable across cylinder sizes. Exact per-size tracking is only
// possible once a baseline exists; before that the engine produces a
// best-effort, auditable approximation via an ordered fallback chain.
package allocation

import (
	"context"
	"time"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Baseline is a driver's starting cylinder-receivable quantity for one
// size. It is established once (onboarding or manual correction) and
// never recomputed automatically: it anchors the incremental sales
// deltas layered on top.
type Baseline struct {
	TenantID       id.ID `db:"tenant_id" json:"tenantId"`
	DriverID       id.ID `db:"driver_id" json:"driverId"`
	CylinderSizeID id.ID `db:"cylinder_size_id" json:"cylinderSizeId"`

	Quantity types.Count `db:"quantity" json:"quantity"`

	// SetAt marks when the baseline was established; only sales after
	// this instant are layered onto it.
	SetAt time.Time `db:"set_at" json:"setAt"`
}

// BaselineRepository persists driver size baselines.
type BaselineRepository interface {
	// Seed writes baselines for a driver. Fails if any baseline already
	// exists for (driver, size); onboarding is write-once.
	Seed(ctx context.Context, baselines []Baseline) error

	// Correct replaces a single baseline. This is the explicit
	// correction action; routine recomputation never touches baselines.
	Correct(ctx context.Context, baseline Baseline) error

	// ListByDriver returns the driver's baselines.
	ListByDriver(ctx context.Context, tenantID, driverID id.ID) ([]Baseline, error)
}

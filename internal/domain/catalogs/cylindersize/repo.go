package cylindersize

import (
	"context"

	"gasledger/internal/core/id"
)

// Repository defines the interface for CylinderSize persistence.
type Repository interface {
	Create(ctx context.Context, size *CylinderSize) error

	Get(ctx context.Context, tenantID, sizeID id.ID) (*CylinderSize, error)

	// ListActive returns active sizes for the tenant ordered by label.
	ListActive(ctx context.Context, tenantID id.ID) ([]*CylinderSize, error)

	// SetActive toggles the active flag.
	SetActive(ctx context.Context, tenantID, sizeID id.ID, active bool) error

	// Delete removes the size row. The service only calls this for
	// unreferenced sizes.
	Delete(ctx context.Context, tenantID, sizeID id.ID) error

	// IsReferenced reports whether any balance or baseline row points at
	// the size.
	IsReferenced(ctx context.Context, tenantID, sizeID id.ID) (bool, error)
}

package product

import (
	"context"

	"gasledger/internal/core/id"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	Get(ctx context.Context, tenantID, productID id.ID) (*Product, error)

	// ListActive returns active products for the tenant ordered by name.
	ListActive(ctx context.Context, tenantID id.ID) ([]*Product, error)

	// ListActiveBySize returns active products backed by the given size.
	ListActiveBySize(ctx context.Context, tenantID, sizeID id.ID) ([]*Product, error)

	// UpdatePrice sets the current unit price.
	UpdatePrice(ctx context.Context, tenantID, productID id.ID, price string) error

	// SetActive toggles the active flag.
	SetActive(ctx context.Context, tenantID, productID id.ID, active bool) error
}

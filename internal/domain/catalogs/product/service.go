package product

import (
	"context"
	"fmt"

	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/pkg/logger"
)

// Service provides business logic for the Product catalog.
type Service struct {
	repo  Repository
	sizes cylindersize.Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, sizes cylindersize.Repository) *Service {
	return &Service{repo: repo, sizes: sizes}
}

// Create registers a product after verifying its cylinder size exists.
func (s *Service) Create(ctx context.Context, tenantID, companyID, sizeID id.ID, name string, unitPrice types.Money) (*Product, error) {
	if _, err := s.sizes.Get(ctx, tenantID, sizeID); err != nil {
		return nil, fmt.Errorf("resolve cylinder size: %w", err)
	}

	p := New(tenantID, companyID, sizeID, name, unitPrice)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, tenantID, productID id.ID) (*Product, error) {
	return s.repo.Get(ctx, tenantID, productID)
}

// ListActive returns the tenant's active products.
func (s *Service) ListActive(ctx context.Context, tenantID id.ID) ([]*Product, error) {
	return s.repo.ListActive(ctx, tenantID)
}

// SizeIndex maps product id to cylinder size id for every active product
// of the tenant. The allocation engine uses it to resolve a refill
// sale's size without a per-sale join.
func (s *Service) SizeIndex(ctx context.Context, tenantID id.ID) (map[id.ID]id.ID, error) {
	products, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	index := make(map[id.ID]id.ID, len(products))
	for _, p := range products {
		index[p.ID] = p.CylinderSizeID
	}
	return index, nil
}

// UpdatePrice changes the current unit price. Historical sales keep the
// price they were recorded with; balances never reprice retroactively.
func (s *Service) UpdatePrice(ctx context.Context, tenantID, productID id.ID, price types.Money) error {
	if price.IsNegative() {
		return fmt.Errorf("unit price must not be negative")
	}
	if err := s.repo.UpdatePrice(ctx, tenantID, productID, price.String()); err != nil {
		return fmt.Errorf("update price: %w", err)
	}

	logger.Info(ctx, "product price updated", "product_id", productID, "price", price.String())
	return nil
}

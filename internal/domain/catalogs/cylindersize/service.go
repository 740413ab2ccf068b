package cylindersize

import (
	"context"
	"fmt"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/pkg/logger"
)

// Service provides business logic for the CylinderSize catalog.
type Service struct {
	repo Repository
}

// NewService creates a new CylinderSize service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new size for the tenant.
func (s *Service) Create(ctx context.Context, tenantID id.ID, label string) (*CylinderSize, error) {
	size := New(tenantID, label)
	if err := size.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, size); err != nil {
		return nil, fmt.Errorf("create cylinder size: %w", err)
	}

	logger.Info(ctx, "cylinder size created", "size_id", size.ID, "label", size.Label)
	return size, nil
}

// Get returns a single size.
func (s *Service) Get(ctx context.Context, tenantID, sizeID id.ID) (*CylinderSize, error) {
	return s.repo.Get(ctx, tenantID, sizeID)
}

// ListActive returns the tenant's active sizes.
func (s *Service) ListActive(ctx context.Context, tenantID id.ID) ([]*CylinderSize, error) {
	return s.repo.ListActive(ctx, tenantID)
}

// Deactivate soft-disables a size. Referenced sizes stay in the catalog
// so existing balance rows keep resolving; they just stop appearing in
// active lists and allocation fallbacks.
func (s *Service) Deactivate(ctx context.Context, tenantID, sizeID id.ID) error {
	if err := s.repo.SetActive(ctx, tenantID, sizeID, false); err != nil {
		return fmt.Errorf("deactivate cylinder size: %w", err)
	}

	logger.Info(ctx, "cylinder size deactivated", "size_id", sizeID)
	return nil
}

// Remove hard-deletes an unreferenced size. Referenced sizes can only be
// deactivated.
func (s *Service) Remove(ctx context.Context, tenantID, sizeID id.ID) error {
	referenced, err := s.repo.IsReferenced(ctx, tenantID, sizeID)
	if err != nil {
		return fmt.Errorf("check size references: %w", err)
	}
	if referenced {
		return apperror.NewSizeReferenced(sizeID.String())
	}

	if err := s.repo.Delete(ctx, tenantID, sizeID); err != nil {
		return fmt.Errorf("delete cylinder size: %w", err)
	}

	logger.Info(ctx, "cylinder size removed", "size_id", sizeID)
	return nil
}

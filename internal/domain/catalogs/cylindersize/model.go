// Package cylindersize provides the CylinderSize catalog. A size (e.g.
// "12L") identifies the physical bottle format; empty-cylinder stock and
// receivable breakdowns are tracked per size, not per product.
package cylindersize

import (
	"context"
	"strings"
	"time"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
)

// CylinderSize is tenant-scoped and immutable once referenced by a
// balance row: it is soft-deactivated, never hard-deleted while
// referenced.
type CylinderSize struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID id.ID  `db:"tenant_id" json:"tenantId"`
	Label    string `db:"label" json:"label"`
	Active   bool   `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a CylinderSize with required fields.
func New(tenantID id.ID, label string) *CylinderSize {
	now := time.Now().UTC()
	return &CylinderSize{
		ID:        id.New(),
		TenantID:  tenantID,
		Label:     strings.TrimSpace(label),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants.
func (s *CylinderSize) Validate(ctx context.Context) error {
	if id.IsNil(s.TenantID) {
		return apperror.NewValidation("tenant_id is required").
			WithDetail("field", "tenant_id")
	}
	if strings.TrimSpace(s.Label) == "" {
		return apperror.NewValidation("label is required").
			WithDetail("field", "label")
	}
	if len(s.Label) > 32 {
		return apperror.NewValidation("label must be 32 characters or less").
			WithDetail("field", "label").
			WithDetail("value", s.Label)
	}
	return nil
}

// Package product provides the Product catalog. A product is a branded
// full cylinder: it belongs to one company and one cylinder size and
// carries the current unit price plus the low-stock alerting threshold.
package product

import (
	"context"
	"strings"
	"time"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// Product represents a sellable full cylinder.
type Product struct {
	ID             id.ID `db:"id" json:"id"`
	TenantID       id.ID `db:"tenant_id" json:"tenantId"`
	CompanyID      id.ID `db:"company_id" json:"companyId"`
	CylinderSizeID id.ID `db:"cylinder_size_id" json:"cylinderSizeId"`

	Name      string      `db:"name" json:"name"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// LowStockThreshold is compared against closing full stock by the
	// external alerting collaborator; the engine only stores it.
	LowStockThreshold types.Count `db:"low_stock_threshold" json:"lowStockThreshold"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a Product with required fields.
func New(tenantID, companyID, sizeID id.ID, name string, unitPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:             id.New(),
		TenantID:       tenantID,
		CompanyID:      companyID,
		CylinderSizeID: sizeID,
		Name:           strings.TrimSpace(name),
		UnitPrice:      unitPrice,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks entity invariants.
func (p *Product) Validate(ctx context.Context) error {
	if id.IsNil(p.TenantID) {
		return apperror.NewValidation("tenant_id is required").
			WithDetail("field", "tenant_id")
	}
	if id.IsNil(p.CylinderSizeID) {
		return apperror.NewValidation("cylinder_size_id is required").
			WithDetail("field", "cylinder_size_id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit_price must not be negative").
			WithDetail("field", "unit_price").
			WithDetail("value", p.UnitPrice.String())
	}
	if p.LowStockThreshold.IsNegative() {
		return apperror.NewValidation("low_stock_threshold must not be negative").
			WithDetail("field", "low_stock_threshold")
	}
	return nil
}

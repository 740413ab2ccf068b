// Package tenant provides tenant metadata for the shared-database
// multi-tenant model. Every balance, event and catalog row carries a
// tenant_id column; this package owns the registry those ids resolve
// against.
package tenant

import (
	"strings"
	"time"

	"gasledger/internal/core/id"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant is included in batch recomputation
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - tenant is marked for deletion
	StatusDeleted Status = "deleted"
)

// Tenant represents a tenant record.
type Tenant struct {
	ID          id.ID     `db:"id"`
	Slug        string    `db:"slug"`         // URL-safe identifier
	DisplayName string    `db:"display_name"` // Human-readable name
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsActive returns true if tenant participates in recomputation.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// CreateInput contains data for registering a new tenant.
type CreateInput struct {
	Slug        string
	DisplayName string
}

// Validate checks if input is valid.
func (i *CreateInput) Validate() error {
	i.Slug = strings.ToLower(strings.TrimSpace(i.Slug))
	if i.Slug == "" {
		return ErrSlugRequired
	}
	if len(i.Slug) > 63 {
		return ErrSlugTooLong
	}
	if i.DisplayName == "" {
		return ErrDisplayNameRequired
	}
	return nil
}

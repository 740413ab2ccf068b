package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when tenant does not exist in the registry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotActive is returned when tenant exists but is not active.
	ErrTenantNotActive = errors.New("tenant is not active")

	ErrSlugRequired        = errors.New("slug is required")
	ErrSlugTooLong         = errors.New("slug must be 63 characters or less")
	ErrDisplayNameRequired = errors.New("display_name is required")
)

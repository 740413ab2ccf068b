package tenant

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"gasledger/internal/core/id"
)

// Registry provides access to tenant metadata.
type Registry interface {
	// GetByID retrieves tenant by id.
	GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error)

	// RequireActive resolves a tenant id and verifies it is active.
	// This is the fatal-per-unit check the recompute runner performs
	// before touching any ledger row.
	RequireActive(ctx context.Context, tenantID id.ID) (*Tenant, error)

	// ListActive returns all active tenants.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant row and populates t.ID.
	Create(ctx context.Context, input CreateInput) (*Tenant, error)

	// UpdateStatus updates tenant status.
	UpdateStatus(ctx context.Context, tenantID id.ID, status Status) error
}

// PostgresRegistry implements Registry over the shared database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id, slug, display_name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) RequireActive(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	if id.IsNil(tenantID) {
		return nil, ErrTenantNotFound
	}
	t, err := r.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, ErrTenantNotActive
	}
	return t, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT id, slug, display_name, status, created_at, updated_at
		FROM tenants
		WHERE status = $1
		ORDER BY slug
	`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, input CreateInput) (*Tenant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		INSERT INTO tenants (id, slug, display_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, slug, display_name, status, created_at, updated_at
	`, id.New(), input.Slug, input.DisplayName, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) UpdateStatus(ctx context.Context, tenantID id.ID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, tenantID, status)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)

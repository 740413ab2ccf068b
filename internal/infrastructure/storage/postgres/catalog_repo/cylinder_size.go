// Package catalog_repo provides PostgreSQL storage for the reference
// catalogs.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/infrastructure/storage/postgres"
)

const cylinderSizesTable = "cylinder_sizes"

// CylinderSizeRepo implements cylindersize.Repository.
type CylinderSizeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCylinderSizeRepo creates a new cylinder size repository.
func NewCylinderSizeRepo(txm *postgres.TxManager) *CylinderSizeRepo {
	return &CylinderSizeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var cylinderSizeColumns = []string{
	"id", "tenant_id", "label", "active", "created_at", "updated_at",
}

// Create inserts a new size. Labels are unique per tenant.
func (r *CylinderSizeRepo) Create(ctx context.Context, s *cylindersize.CylinderSize) error {
	q := r.builder.Insert(cylinderSizesTable).
		Columns(cylinderSizeColumns...).
		Values(s.ID, s.TenantID, s.Label, s.Active, s.CreatedAt, s.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("cylinder size", "label", s.Label)
		}
		return fmt.Errorf("insert cylinder size: %w", err)
	}
	return nil
}

// Get returns the size or a NotFound error.
func (r *CylinderSizeRepo) Get(ctx context.Context, tenantID, sizeID id.ID) (*cylindersize.CylinderSize, error) {
	q := r.builder.Select(cylinderSizeColumns...).
		From(cylinderSizesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": sizeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var size cylindersize.CylinderSize
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &size, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cylinder size", sizeID.String())
		}
		return nil, fmt.Errorf("get cylinder size: %w", err)
	}
	return &size, nil
}

// ListActive returns active sizes for the tenant ordered by label.
func (r *CylinderSizeRepo) ListActive(ctx context.Context, tenantID id.ID) ([]*cylindersize.CylinderSize, error) {
	q := r.builder.Select(cylinderSizeColumns...).
		From(cylinderSizesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "active": true}).
		OrderBy("label ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sizes []*cylindersize.CylinderSize
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sizes, sql, args...); err != nil {
		return nil, fmt.Errorf("select cylinder sizes: %w", err)
	}
	return sizes, nil
}

// SetActive toggles the active flag.
func (r *CylinderSizeRepo) SetActive(ctx context.Context, tenantID, sizeID id.ID, active bool) error {
	q := r.builder.Update(cylinderSizesTable).
		Set("active", active).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": sizeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cylinder size: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cylinder size", sizeID.String())
	}
	return nil
}

// Delete removes the size row.
func (r *CylinderSizeRepo) Delete(ctx context.Context, tenantID, sizeID id.ID) error {
	q := r.builder.Delete(cylinderSizesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": sizeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete cylinder size: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cylinder size", sizeID.String())
	}
	return nil
}

// IsReferenced reports whether any balance or baseline row points at the
// size.
func (r *CylinderSizeRepo) IsReferenced(ctx context.Context, tenantID, sizeID id.ID) (bool, error) {
	sql := `
		SELECT EXISTS (
			SELECT 1 FROM ledger_empty_balances
			WHERE tenant_id = $1 AND cylinder_size_id = $2
		) OR EXISTS (
			SELECT 1 FROM allocation_baselines
			WHERE tenant_id = $1 AND cylinder_size_id = $2
		) OR EXISTS (
			SELECT 1 FROM products
			WHERE tenant_id = $1 AND cylinder_size_id = $2
		)
	`

	var referenced bool
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &referenced, sql, tenantID, sizeID); err != nil {
		return false, fmt.Errorf("check size references: %w", err)
	}
	return referenced, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ensure interface compliance.
var _ cylindersize.Repository = (*CylinderSizeRepo)(nil)

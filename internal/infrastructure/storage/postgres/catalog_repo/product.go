package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var productColumns = []string{
	"id", "tenant_id", "company_id", "cylinder_size_id",
	"name", "unit_price", "low_stock_threshold", "active",
	"created_at", "updated_at",
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.TenantID, p.CompanyID, p.CylinderSizeID,
			p.Name, p.UnitPrice, p.LowStockThreshold, p.Active,
			p.CreatedAt, p.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "name", p.Name)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Get returns the product or a NotFound error.
func (r *ProductRepo) Get(ctx context.Context, tenantID, productID id.ID) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListActive returns active products for the tenant ordered by name.
func (r *ProductRepo) ListActive(ctx context.Context, tenantID id.ID) ([]*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "active": true}).
		OrderBy("name ASC")

	return r.selectProducts(ctx, q)
}

// ListActiveBySize returns active products backed by the given size.
func (r *ProductRepo) ListActiveBySize(ctx context.Context, tenantID, sizeID id.ID) ([]*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "cylinder_size_id": sizeID, "active": true}).
		OrderBy("name ASC")

	return r.selectProducts(ctx, q)
}

func (r *ProductRepo) selectProducts(ctx context.Context, q squirrel.SelectBuilder) ([]*product.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

// UpdatePrice sets the current unit price.
func (r *ProductRepo) UpdatePrice(ctx context.Context, tenantID, productID id.ID, price string) error {
	q := r.builder.Update(productsTable).
		Set("unit_price", price).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productID})

	return r.execUpdate(ctx, q, productID)
}

// SetActive toggles the active flag.
func (r *ProductRepo) SetActive(ctx context.Context, tenantID, productID id.ID, active bool) error {
	q := r.builder.Update(productsTable).
		Set("active", active).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productID})

	return r.execUpdate(ctx, q, productID)
}

func (r *ProductRepo) execUpdate(ctx context.Context, q squirrel.UpdateBuilder, productID id.ID) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)

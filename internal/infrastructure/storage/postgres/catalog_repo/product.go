// Package catalog_repo provides PostgreSQL readers for products and branches.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/infrastructure/storage/postgres"
)

// ProductRepo implements catalog.ProductReader.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ catalog.ProductReader = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) activeProductsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "name", "category_id").
		From("products").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("name", "id")
}

// GetActiveProducts returns every active product ordered by name.
func (r *ProductRepo) GetActiveProducts(ctx context.Context) ([]catalog.Product, error) {
	sql, args, err := r.activeProductsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select active products: %w", err)
	}
	return products, nil
}

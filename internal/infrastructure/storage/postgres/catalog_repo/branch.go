package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/infrastructure/storage/postgres"
)

// BranchRepo implements catalog.BranchReader.
type BranchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ catalog.BranchReader = (*BranchRepo)(nil)

// NewBranchRepo creates a new branch repository.
func NewBranchRepo(txManager *postgres.TxManager) *BranchRepo {
	return &BranchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BranchRepo) activeBranchesQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "name").
		From("branches").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("name", "id")
}

// GetActiveBranches returns every active branch.
func (r *BranchRepo) GetActiveBranches(ctx context.Context) ([]catalog.Branch, error) {
	sql, args, err := r.activeBranchesQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var branches []catalog.Branch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &branches, sql, args...); err != nil {
		return nil, fmt.Errorf("select active branches: %w", err)
	}
	return branches, nil
}

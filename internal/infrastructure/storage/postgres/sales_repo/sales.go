// Package sales_repo reads sold quantities from the transaction ledger.
// Only PAID transactions count; days are UTC calendar days.
package sales_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lumpiah/internal/core/id"
	"lumpiah/internal/domain/forecast"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/storage/postgres"
)

// StatusPaid is the transaction status that counts as a sale.
const StatusPaid = "PAID"

const saleDayExpr = "date_trunc('day', t.created_at AT TIME ZONE 'UTC')"

// SalesRepo implements forecast.SalesRepository and production.SalesReader.
type SalesRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var (
	_ forecast.SalesRepository = (*SalesRepo)(nil)
	_ production.SalesReader   = (*SalesRepo)(nil)
)

// NewSalesRepo creates a new sales repository.
func NewSalesRepo(txManager *postgres.TxManager) *SalesRepo {
	return &SalesRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SalesRepo) paidItems(from, to time.Time) squirrel.SelectBuilder {
	return r.builder.
		Select().
		From("transaction_items ti").
		Join("transactions t ON t.id = ti.transaction_id").
		Where(squirrel.Eq{"t.status": StatusPaid}).
		Where(squirrel.GtOrEq{"t.created_at": from}).
		Where(squirrel.Lt{"t.created_at": to})
}

func (r *SalesRepo) dailyQuery(productIDs []id.ID, branchID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return r.paidItems(from, to).
		Columns(
			"ti.product_id",
			saleDayExpr+" AS sale_day",
			"SUM(ti.quantity)::bigint AS quantity",
		).
		Where(squirrel.Eq{"t.branch_id": branchID.String()}).
		Where(squirrel.Eq{"ti.product_id": productIDs}).
		GroupBy("ti.product_id", saleDayExpr)
}

// SumSoldQuantityByProductAndDay sums paid quantities per product and UTC day within [from, to).
func (r *SalesRepo) SumSoldQuantityByProductAndDay(ctx context.Context, productIDs []id.ID, branchID id.ID, from, to time.Time) ([]forecast.DailySales, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.dailyQuery(productIDs, branchID, from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []forecast.DailySales
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum sold quantity by day: %w", err)
	}
	return rows, nil
}

func (r *SalesRepo) totalsQuery(branchID *id.ID, from, to time.Time) squirrel.SelectBuilder {
	q := r.paidItems(from, to).
		Columns("ti.product_id", "SUM(ti.quantity)::bigint AS quantity").
		GroupBy("ti.product_id")
	if branchID != nil {
		q = q.Where(squirrel.Eq{"t.branch_id": branchID.String()})
	}
	return q
}

type productTotal struct {
	ProductID id.ID `db:"product_id"`
	Quantity  int   `db:"quantity"`
}

// SumSoldQuantityByProduct sums paid quantities per product within [from, to).
// A nil branchID covers all branches.
func (r *SalesRepo) SumSoldQuantityByProduct(ctx context.Context, branchID *id.ID, from, to time.Time) (map[id.ID]int, error) {
	sql, args, err := r.totalsQuery(branchID, from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []productTotal
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum sold quantity: %w", err)
	}

	out := make(map[id.ID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Quantity
	}
	return out, nil
}

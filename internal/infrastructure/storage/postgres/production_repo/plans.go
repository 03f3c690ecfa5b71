// Package production_repo persists production plans and realizations.
package production_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/storage/postgres"
)

const (
	tablePlans        = "production_plans"
	tableRealizations = "production_realizations"
)

// planColumns are the stored columns of production_plans, in COPY order.
var planColumns = []string{
	"id", "branch_id", "product_id", "plan_date", "recommended_qty",
	"calculation_log", "calculation", "created_at",
}

var realizationColumns = postgres.ExtractDBColumns[production.Realization]()

// PlanRepo implements production.PlanRepository.
type PlanRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

var _ production.PlanRepository = (*PlanRepo)(nil)

// NewPlanRepo creates a new plan repository.
func NewPlanRepo(txManager *postgres.TxManager) *PlanRepo {
	return &PlanRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PlanRepo) selectPlans() squirrel.SelectBuilder {
	return r.builder.
		Select(
			"pp.id", "pp.branch_id", "pp.product_id",
			"p.name AS product_name", "p.category_id",
			"pp.plan_date", "pp.recommended_qty", "pp.calculation_log", "pp.calculation",
			"pp.created_at",
		).
		From(tablePlans + " pp").
		Join("products p ON p.id = pp.product_id")
}

func (r *PlanRepo) findPlansQuery(f production.PlanFilter) squirrel.SelectBuilder {
	q := r.selectPlans().
		Where(squirrel.GtOrEq{"pp.plan_date": f.From}).
		Where(squirrel.Lt{"pp.plan_date": f.To})
	if f.BranchID != nil {
		q = q.Where(squirrel.Eq{"pp.branch_id": f.BranchID.String()})
	}
	if len(f.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"pp.product_id": f.ProductIDs})
	}
	return q.OrderBy("pp.created_at", "pp.id")
}

// FindPlans returns plans in the filter window with their realizations, most recent first.
func (r *PlanRepo) FindPlans(ctx context.Context, f production.PlanFilter) ([]production.Plan, error) {
	sql, args, err := r.findPlansQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plans []production.Plan
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &plans, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", tablePlans, err)
	}
	if err := r.attachRealizations(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlan returns one plan with its realizations.
func (r *PlanRepo) GetPlan(ctx context.Context, planID id.ID) (*production.Plan, error) {
	sql, args, err := r.selectPlans().
		Where(squirrel.Eq{"pp.id": planID.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plan production.Plan
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &plan, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("production plan", planID)
		}
		return nil, fmt.Errorf("get %s: %w", tablePlans, err)
	}

	plans := []production.Plan{plan}
	if err := r.attachRealizations(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (r *PlanRepo) realizationsQuery(planIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(realizationColumns...).
		From(tableRealizations).
		Where(squirrel.Eq{"plan_id": planIDs}).
		OrderBy("plan_id", "created_at DESC", "id DESC")
}

func (r *PlanRepo) attachRealizations(ctx context.Context, plans []production.Plan) error {
	if len(plans) == 0 {
		return nil
	}

	ids := make([]id.ID, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}

	sql, args, err := r.realizationsQuery(ids).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var rows []production.Realization
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return fmt.Errorf("select %s: %w", tableRealizations, err)
	}

	groupRealizations(plans, rows)
	return nil
}

// groupRealizations distributes rows (already ordered newest first per plan) onto plans.
func groupRealizations(plans []production.Plan, rows []production.Realization) {
	byPlan := make(map[id.ID][]production.Realization, len(plans))
	for _, rz := range rows {
		byPlan[rz.PlanID] = append(byPlan[rz.PlanID], rz)
	}
	for i := range plans {
		plans[i].Realizations = byPlan[plans[i].ID]
	}
}

func (r *PlanRepo) plannedProductsQuery(branchID id.ID, from, to time.Time, productIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("product_id").
		Distinct().
		From(tablePlans).
		Where(squirrel.Eq{"branch_id": branchID.String()}).
		Where(squirrel.GtOrEq{"plan_date": from}).
		Where(squirrel.Lt{"plan_date": to}).
		Where(squirrel.Eq{"product_id": productIDs})
}

// FindPlannedProductIDs returns which of productIDs already have a plan in [from, to).
func (r *PlanRepo) FindPlannedProductIDs(ctx context.Context, branchID id.ID, from, to time.Time, productIDs []id.ID) ([]id.ID, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.plannedProductsQuery(branchID, from, to, productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("select planned products: %w", err)
	}
	return ids, nil
}

// CreatePlans bulk-inserts plans with COPY. Requires a transaction.
func (r *PlanRepo) CreatePlans(ctx context.Context, plans []production.Plan) error {
	rows := make([][]any, len(plans))
	for i, p := range plans {
		rows[i] = postgres.RowValues(p, planColumns)
	}
	_, err := r.batch.CopyFromSlice(ctx, tablePlans, planColumns, rows)
	return err
}

// CreateRealizations bulk-inserts realizations with COPY. Requires a transaction.
func (r *PlanRepo) CreateRealizations(ctx context.Context, realizations []production.Realization) error {
	rows := make([][]any, len(realizations))
	for i, rz := range realizations {
		rows[i] = postgres.RowValues(rz, realizationColumns)
	}
	_, err := r.batch.CopyFromSlice(ctx, tableRealizations, realizationColumns, rows)
	return err
}

func (r *PlanRepo) updateRealizationQuery(upd production.RealizationUpdate) squirrel.UpdateBuilder {
	return r.builder.
		Update(tableRealizations).
		Set("actual_qty", upd.ActualQty).
		Set("deviation", upd.Deviation).
		Set("notes", upd.Notes).
		Set("status", string(upd.Status)).
		Set("input_by_user_id", squirrel.Expr("NULLIF(?, '')", upd.InputByUserID)).
		Set("updated_at", upd.UpdatedAt).
		Where(squirrel.Eq{"id": upd.ID.String()}).
		Where(squirrel.NotEq{"status": string(production.StatusCompleted)})
}

// UpdateRealization overwrites a realization unless it is COMPLETED.
// Returns false when no row was updated.
func (r *PlanRepo) UpdateRealization(ctx context.Context, upd production.RealizationUpdate) (bool, error) {
	sql, args, err := r.updateRealizationQuery(upd).ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", tableRealizations, err)
	}
	return tag.RowsAffected() == 1, nil
}

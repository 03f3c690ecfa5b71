package production

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "lumpiah/internal/core/context"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/tx"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/domain/forecast"
	"lumpiah/pkg/logger"
)

// EnsurePlans returns exactly one plan per product for the branch and day,
// generating plans for products that have none.
//
// Generation runs only for today or past days unless allowFutureInit is set.
// A failed generation is logged and counted; whatever plans exist are still returned.
func (s *Service) EnsurePlans(ctx context.Context, branchID id.ID, day types.Day, allowFutureInit bool) ([]PlanView, error) {
	ctx, span := tracer.Start(ctx, "production.EnsurePlans",
		trace.WithAttributes(
			attribute.String("branch_id", branchID.String()),
			attribute.String("plan_date", day.String()),
		))
	defer span.End()
	ctx = appctx.WithPlanScope(ctx, appctx.PlanScope{BranchID: branchID.String(), PlanDate: day.String()})

	filter := PlanFilter{BranchID: &branchID, From: day.Start(), To: day.End()}

	products, err := s.products.GetActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active products: %w", err)
	}

	existing, err := s.plans.FindPlans(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find plans: %w", err)
	}

	missing := missingProducts(products, existing)
	today := types.DayOf(s.now())
	if len(missing) > 0 && (!day.After(today) || allowFutureInit) {
		s.generate(ctx, branchID, day, missing)

		existing, err = s.plans.FindPlans(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("find plans: %w", err)
		}
	}

	plans := dedupByProduct(existing)
	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, newPlanView(p))
	}
	sortViews(views)

	span.SetAttributes(attribute.Int("plans", len(views)))
	return views, nil
}

// generate creates plans and seed realizations for the given products inside one
// serializable transaction. Products planned concurrently are skipped.
func (s *Service) generate(ctx context.Context, branchID id.ID, day types.Day, missing []catalog.Product) {
	productIDs := make([]id.ID, 0, len(missing))
	for _, p := range missing {
		productIDs = append(productIDs, p.ID)
	}

	forecasts, err := s.forecaster.ForecastBatch(ctx, branchID, day, productIDs)
	if err != nil {
		s.generationFailed(ctx, "forecast", err)
		return
	}

	release := s.acquireLock(ctx, branchID, day)
	defer release()

	opts := tx.Options{
		Isolation: tx.Serializable,
		MaxWait:   s.maxWait,
		Timeout:   s.timeout,
	}

	var created []id.ID
	err = s.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		created = nil

		planned, err := s.plans.FindPlannedProductIDs(ctx, branchID, day.Start(), day.End(), productIDs)
		if err != nil {
			return fmt.Errorf("find planned products: %w", err)
		}
		skip := make(map[id.ID]struct{}, len(planned))
		for _, pid := range planned {
			skip[pid] = struct{}{}
		}

		now := s.now().UTC()
		plans := make([]Plan, 0, len(productIDs))
		seeds := make([]Realization, 0, len(productIDs))
		for _, pid := range productIDs {
			if _, ok := skip[pid]; ok {
				continue
			}
			plan := newPlan(branchID, pid, day, forecasts[pid], now)
			plans = append(plans, plan)
			seeds = append(seeds, Realization{
				ID:        id.New(),
				PlanID:    plan.ID,
				ActualQty: 0,
				Deviation: -plan.RecommendedQty,
				Status:    StatusInProgress,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if len(plans) == 0 {
			return nil
		}

		if err := s.plans.CreatePlans(ctx, plans); err != nil {
			return fmt.Errorf("create plans: %w", err)
		}
		if err := s.plans.CreateRealizations(ctx, seeds); err != nil {
			return fmt.Errorf("create realizations: %w", err)
		}

		ids := make([]id.ID, 0, len(plans))
		for _, p := range plans {
			ids = append(ids, p.ID)
		}
		if s.events != nil {
			err := s.events.Publish(ctx, Event{
				AggregateType: AggregateBranch,
				AggregateID:   branchID,
				Type:          EventPlansGenerated,
				Payload:       PlansGeneratedPayload{BranchID: branchID, PlanDate: day, PlanIDs: ids},
			})
			if err != nil {
				return fmt.Errorf("publish %s: %w", EventPlansGenerated, err)
			}
		}
		created = ids
		return nil
	})
	if err != nil {
		s.generationFailed(ctx, "transaction", err)
		return
	}

	if len(created) > 0 {
		s.metrics.plansGenerated(ctx, len(created))
		logger.Info(ctx, "production plans generated", "count", len(created))
	}
}

func (s *Service) generationFailed(ctx context.Context, stage string, err error) {
	s.metrics.generationFailed(ctx, stage)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan generation failed")
	}
	logger.Error(ctx, "plan generation failed", "stage", stage, "error", err)
}

// acquireLock takes the optional distributed lock. Generation proceeds without it
// when the lock is unavailable or held elsewhere.
func (s *Service) acquireLock(ctx context.Context, branchID id.ID, day types.Day) func() {
	if s.locker == nil {
		return func() {}
	}
	release, obtained, err := s.locker.TryLock(ctx, LockKey(branchID, day), s.lockTTL)
	if err != nil {
		logger.Warn(ctx, "plan generation lock unavailable", "error", err)
		return func() {}
	}
	if !obtained {
		logger.Debug(ctx, "plan generation lock held elsewhere")
		return func() {}
	}
	return release
}

// LockKey is the distributed lock key for one branch-day generation.
func LockKey(branchID id.ID, day types.Day) string {
	return fmt.Sprintf("production:plans:%s:%s", branchID, day)
}

func newPlan(branchID, productID id.ID, day types.Day, f forecast.Result, now time.Time) Plan {
	calc := f.Calculation
	return Plan{
		ID:             id.New(),
		BranchID:       branchID,
		ProductID:      productID,
		PlanDate:       day.Start(),
		RecommendedQty: f.Qty,
		CalculationLog: f.Log,
		Calculation:    &calc,
		CreatedAt:      now,
	}
}

func missingProducts(products []catalog.Product, plans []Plan) []catalog.Product {
	planned := make(map[id.ID]struct{}, len(plans))
	for _, p := range plans {
		planned[p.ProductID] = struct{}{}
	}
	var missing []catalog.Product
	for _, p := range products {
		if _, ok := planned[p.ID]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

func sortViews(views []PlanView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].ProductName != views[j].ProductName {
			return views[i].ProductName < views[j].ProductName
		}
		return id.Compare(views[i].ProductID, views[j].ProductID) < 0
	})
}

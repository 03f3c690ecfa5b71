package production

import (
	"context"
	"fmt"

	"lumpiah/internal/core/apperror"
	appctx "lumpiah/internal/core/context"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
	"lumpiah/pkg/logger"
)

// RealizationInput is an operator submission for a plan.
type RealizationInput struct {
	ActualQty int
	// Notes nil keeps the stored notes.
	Notes  *string
	Status Status
}

// Validate checks the submission shape.
func (in RealizationInput) Validate() error {
	if in.ActualQty < 0 {
		return apperror.NewValidation("actualQty must not be negative").
			WithDetail("actualQty", in.ActualQty)
	}
	if !in.Status.Submittable() {
		return apperror.NewValidation("status must be IN_PROGRESS or COMPLETED").
			WithDetail("status", in.Status)
	}
	return nil
}

// SubmitRealization overwrites the active realization of a plan.
// Once a realization is COMPLETED it rejects further changes.
func (s *Service) SubmitRealization(ctx context.Context, userID string, planID id.ID, in RealizationInput) (*PlanView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "production.SubmitRealization")
	defer span.End()
	ctx = appctx.WithPlanScope(ctx, appctx.PlanScope{PlanID: planID.String()})

	var view PlanView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.plans.GetPlan(ctx, planID)
		if err != nil {
			return err
		}

		current := plan.Latest()
		if current == nil {
			return apperror.NewDataIntegrity("production plan has no realization").
				WithDetail("planId", planID)
		}
		if current.Status == StatusCompleted {
			return apperror.NewLocked("production realization", current.ID)
		}

		notes := current.Notes
		if in.Notes != nil {
			notes = *in.Notes
		}

		upd := RealizationUpdate{
			ID:            current.ID,
			ActualQty:     in.ActualQty,
			Deviation:     in.ActualQty - plan.RecommendedQty,
			Notes:         notes,
			Status:        in.Status,
			InputByUserID: userID,
			UpdatedAt:     s.now().UTC(),
		}
		updated, err := s.plans.UpdateRealization(ctx, upd)
		if err != nil {
			return fmt.Errorf("update realization: %w", err)
		}
		if !updated {
			// completed concurrently
			return apperror.NewLocked("production realization", current.ID)
		}

		before := *current
		current.ActualQty = upd.ActualQty
		current.Deviation = upd.Deviation
		current.Notes = upd.Notes
		current.Status = upd.Status
		current.UpdatedAt = upd.UpdatedAt
		if userID != "" {
			uid := userID
			current.InputByUserID = &uid
		}

		if err := s.recordChange(ctx, plan, before, *current, userID); err != nil {
			return err
		}

		view = newPlanView(*plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "production realization submitted",
		"status", view.Status,
		"actual_qty", in.ActualQty)

	return &view, nil
}

func (s *Service) recordChange(ctx context.Context, plan *Plan, before, after Realization, userID string) error {
	if s.audit != nil {
		change := RealizationChange{
			PlanID:        plan.ID,
			RealizationID: after.ID,
			UserID:        userID,
			Before:        snapshotOf(before),
			After:         snapshotOf(after),
		}
		if err := s.audit.RecordRealizationChange(ctx, change); err != nil {
			return fmt.Errorf("audit realization: %w", err)
		}
	}

	if s.events != nil && after.Status == StatusCompleted {
		err := s.events.Publish(ctx, Event{
			AggregateType: AggregatePlan,
			AggregateID:   plan.ID,
			Type:          EventRealizationCompleted,
			Payload: RealizationCompletedPayload{
				PlanID:         plan.ID,
				BranchID:       plan.BranchID,
				ProductID:      plan.ProductID,
				PlanDate:       types.DayOf(plan.PlanDate),
				RecommendedQty: plan.RecommendedQty,
				ActualQty:      after.ActualQty,
				Deviation:      after.Deviation,
				InputByUserID:  userID,
			},
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", EventRealizationCompleted, err)
		}
	}
	return nil
}

// GetPlan returns one plan with its realization state.
func (s *Service) GetPlan(ctx context.Context, planID id.ID) (*PlanView, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	view := newPlanView(*plan)
	return &view, nil
}

// PlanCalculation is the stored forecast breakdown of a plan.
type PlanCalculation struct {
	PlanID         id.ID                 `json:"planId"`
	ProductID      id.ID                 `json:"productId"`
	ProductName    string                `json:"productName"`
	PlanDate       types.Day             `json:"planDate"`
	RecommendedQty int                   `json:"recommendedQty"`
	CalculationLog string                `json:"calculationLog"`
	Calculation    *forecast.Calculation `json:"calculation,omitempty"`
}

// GetCalculation returns how a plan's recommendation was derived.
func (s *Service) GetCalculation(ctx context.Context, planID id.ID) (*PlanCalculation, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	out := &PlanCalculation{
		PlanID:         plan.ID,
		ProductID:      plan.ProductID,
		ProductName:    plan.ProductName,
		PlanDate:       types.DayOf(plan.PlanDate),
		RecommendedQty: plan.RecommendedQty,
		CalculationLog: plan.CalculationLog,
		Calculation:    plan.Calculation,
	}
	// Plans written before the structured column existed only carry the log.
	if plan.Calculation != nil {
		out.CalculationLog = forecast.RenderLog(*plan.Calculation)
	}
	return out, nil
}

package production

import (
	"context"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// Event types written to the outbox.
const (
	EventPlansGenerated       = "production.plans_generated"
	EventRealizationCompleted = "production.realization_completed"

	AggregateBranch = "Branch"
	AggregatePlan   = "ProductionPlan"
)

// Event is a domain event published in the same transaction as the change.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// EventPublisher writes events. Implementations require a transaction in ctx.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// PlansGeneratedPayload describes one generation run.
type PlansGeneratedPayload struct {
	BranchID id.ID     `json:"branchId"`
	PlanDate types.Day `json:"planDate"`
	PlanIDs  []id.ID   `json:"planIds"`
}

// RealizationCompletedPayload describes a finalized realization.
type RealizationCompletedPayload struct {
	PlanID         id.ID     `json:"planId"`
	BranchID       id.ID     `json:"branchId"`
	ProductID      id.ID     `json:"productId"`
	PlanDate       types.Day `json:"planDate"`
	RecommendedQty int       `json:"recommendedQty"`
	ActualQty      int       `json:"actualQty"`
	Deviation      int       `json:"deviation"`
	InputByUserID  string    `json:"inputByUserId"`
}

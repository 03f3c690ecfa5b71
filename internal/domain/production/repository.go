package production

import (
	"context"
	"time"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
)

// PlanFilter selects plans by plan date window and optionally branch/products.
type PlanFilter struct {
	BranchID   *id.ID
	From       time.Time // inclusive
	To         time.Time // exclusive
	ProductIDs []id.ID
}

// RealizationUpdate overwrites the mutable fields of a realization.
type RealizationUpdate struct {
	ID            id.ID
	ActualQty     int
	Deviation     int
	Notes         string
	Status        Status
	InputByUserID string
	UpdatedAt     time.Time
}

// PlanRepository persists plans and realizations.
type PlanRepository interface {
	// FindPlans returns plans with their realizations (most recent first).
	FindPlans(ctx context.Context, filter PlanFilter) ([]Plan, error)

	// FindPlannedProductIDs returns which of productIDs already have a plan in [from, to).
	FindPlannedProductIDs(ctx context.Context, branchID id.ID, from, to time.Time, productIDs []id.ID) ([]id.ID, error)

	// GetPlan returns a plan with realizations or a NotFound error.
	GetPlan(ctx context.Context, planID id.ID) (*Plan, error)

	// CreatePlans bulk-inserts plans. Must run inside a transaction.
	CreatePlans(ctx context.Context, plans []Plan) error

	// CreateRealizations bulk-inserts realizations. Must run inside a transaction.
	CreateRealizations(ctx context.Context, realizations []Realization) error

	// UpdateRealization applies the update unless the realization is already COMPLETED.
	// Returns false when nothing was updated.
	UpdateRealization(ctx context.Context, upd RealizationUpdate) (bool, error)
}

// SalesReader reads sold quantities for accuracy reporting.
type SalesReader interface {
	// SumSoldQuantityByProduct sums paid quantities per product in [from, to).
	// A nil branchID means all branches.
	SumSoldQuantityByProduct(ctx context.Context, branchID *id.ID, from, to time.Time) (map[id.ID]int, error)
}

// Forecaster produces forecasts for many products at once.
type Forecaster interface {
	ForecastBatch(ctx context.Context, branchID id.ID, day types.Day, productIDs []id.ID) (map[id.ID]forecast.Result, error)
}

// Locker is an optional cross-process lock used to reduce contention on generation.
type Locker interface {
	// TryLock attempts to take key for ttl. obtained is false when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), obtained bool, err error)
}

// AuditLogger records realization changes.
type AuditLogger interface {
	RecordRealizationChange(ctx context.Context, change RealizationChange) error
}

// RealizationChange is one audited realization submission.
type RealizationChange struct {
	PlanID        id.ID               `json:"planId"`
	RealizationID id.ID               `json:"realizationId"`
	UserID        string              `json:"userId"`
	Before        RealizationSnapshot `json:"before"`
	After         RealizationSnapshot `json:"after"`
}

// RealizationSnapshot is the audited subset of realization fields.
type RealizationSnapshot struct {
	ActualQty int    `json:"actualQty"`
	Deviation int    `json:"deviation"`
	Notes     string `json:"notes"`
	Status    Status `json:"status"`
}

func snapshotOf(r Realization) RealizationSnapshot {
	return RealizationSnapshot{
		ActualQty: r.ActualQty,
		Deviation: r.Deviation,
		Notes:     r.Notes,
		Status:    r.Status,
	}
}

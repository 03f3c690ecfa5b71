// Package production materializes daily production plans from forecasts and
// governs operator realizations against them.
package production

import (
	"time"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
)

// Status is the realization status of a plan.
type Status string

const (
	// StatusPending means the plan has no realization row.
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// rank orders statuses by how far the realization has advanced.
func (s Status) rank() int {
	switch s {
	case StatusCompleted:
		return 3
	case StatusInProgress:
		return 2
	default:
		return 1
	}
}

// Submittable reports whether an operator may request this status.
func (s Status) Submittable() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Plan is the persisted forecast target for one product, one branch, one UTC day.
// RecommendedQty never changes after creation.
type Plan struct {
	ID             id.ID                 `db:"id"`
	BranchID       id.ID                 `db:"branch_id"`
	ProductID      id.ID                 `db:"product_id"`
	ProductName    string                `db:"product_name"`
	CategoryID     *id.ID                `db:"category_id"`
	PlanDate       time.Time             `db:"plan_date"`
	RecommendedQty int                   `db:"recommended_qty"`
	CalculationLog string                `db:"calculation_log"`
	Calculation    *forecast.Calculation `db:"calculation"`
	CreatedAt      time.Time             `db:"created_at"`

	// Realizations are ordered most recent first.
	Realizations []Realization `db:"-"`
}

// Latest returns the active realization or nil.
func (p *Plan) Latest() *Realization {
	if len(p.Realizations) == 0 {
		return nil
	}
	return &p.Realizations[0]
}

// Status returns the status of the latest realization, PENDING when there is none.
func (p *Plan) Status() Status {
	if r := p.Latest(); r != nil {
		return r.Status
	}
	return StatusPending
}

// Realization is the operator-recorded output against a plan.
// Deviation is always ActualQty - plan.RecommendedQty.
type Realization struct {
	ID            id.ID     `db:"id"`
	PlanID        id.ID     `db:"plan_id"`
	ActualQty     int       `db:"actual_qty"`
	Deviation     int       `db:"deviation"`
	Notes         string    `db:"notes"`
	Status        Status    `db:"status"`
	InputByUserID *string   `db:"input_by_user_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// PlanView is the response shape of a plan with its realization state.
type PlanView struct {
	PlanID         id.ID      `json:"planId"`
	BranchID       id.ID      `json:"branchId"`
	ProductID      id.ID      `json:"productId"`
	ProductName    string     `json:"productName"`
	CategoryID     *id.ID     `json:"categoryId,omitempty"`
	PlanDate       types.Day  `json:"planDate"`
	RecommendedQty int        `json:"recommendedQty"`
	ActualQty      *int       `json:"actualQty"`
	Deviation      *int       `json:"deviation"`
	Notes          string     `json:"notes"`
	Status         Status     `json:"status"`
	RealizationID  *id.ID     `json:"realizationId,omitempty"`
	CalculationLog string     `json:"calculationLog"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

func newPlanView(p Plan) PlanView {
	v := PlanView{
		PlanID:         p.ID,
		BranchID:       p.BranchID,
		ProductID:      p.ProductID,
		ProductName:    p.ProductName,
		CategoryID:     p.CategoryID,
		PlanDate:       types.DayOf(p.PlanDate),
		RecommendedQty: p.RecommendedQty,
		Status:         p.Status(),
		CalculationLog: p.CalculationLog,
	}
	if r := p.Latest(); r != nil {
		actual, deviation, rid, updated := r.ActualQty, r.Deviation, r.ID, r.UpdatedAt
		v.ActualQty = &actual
		v.Deviation = &deviation
		v.RealizationID = &rid
		v.UpdatedAt = &updated
		v.Notes = r.Notes
	}
	return v
}

package dto

import (
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/production"
)

// PlansQuery is the query of GET /production/plans.
type PlansQuery struct {
	BranchID string `form:"branchId"`
	Date     string `form:"date" binding:"required"`
	Init     bool   `form:"init"`
}

// PlansResponse lists the plans of one branch and day.
type PlansResponse struct {
	BranchID string                `json:"branchId"`
	Date     types.Day             `json:"date"`
	Plans    []production.PlanView `json:"plans"`
}

// RealizationRequest is the body of PUT /production/plans/:planId/realization.
type RealizationRequest struct {
	ActualQty *int    `json:"actualQty" binding:"required"`
	Notes     *string `json:"notes"`
	Status    string  `json:"status" binding:"required"`
}

// ToInput maps the request onto the domain input.
func (r RealizationRequest) ToInput() production.RealizationInput {
	return production.RealizationInput{
		ActualQty: *r.ActualQty,
		Notes:     r.Notes,
		Status:    production.Status(r.Status),
	}
}

// AccuracyQuery is the query of the accuracy endpoints. BranchID is optional.
type AccuracyQuery struct {
	BranchID string `form:"branchId"`
	Date     string `form:"date" binding:"required"`
}

// HistoryQuery pages the realization audit trail.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

package dto

import (
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
)

// WeightConfigRequest is the body of PUT /forecast/config/:branchId.
// Numbers and decimal strings are both accepted and kept exact.
type WeightConfigRequest struct {
	Weights            []types.Ratio `json:"weights" binding:"required"`
	SafetyStockPercent *types.Ratio  `json:"safetyStockPercent" binding:"required"`
}

// ToConfig maps the request onto the domain configuration.
func (r WeightConfigRequest) ToConfig(branchID id.ID) forecast.WeightConfig {
	return forecast.WeightConfig{
		BranchID:           branchID,
		Weights:            r.Weights,
		SafetyStockPercent: *r.SafetyStockPercent,
	}
}

// PreviewQuery is the query of GET /forecast/preview.
type PreviewQuery struct {
	BranchID  string `form:"branchId" binding:"required"`
	ProductID string `form:"productId" binding:"required"`
	Date      string `form:"date" binding:"required"`
}

// PreviewResponse is an unpersisted single-product forecast.
type PreviewResponse struct {
	BranchID       string               `json:"branchId"`
	ProductID      string               `json:"productId"`
	Date           types.Day            `json:"date"`
	RecommendedQty int                  `json:"recommendedQty"`
	CalculationLog string               `json:"calculationLog"`
	Calculation    forecast.Calculation `json:"calculation"`
}

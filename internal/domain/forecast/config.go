// Package forecast computes recommended production quantities from historical
// sales using a weighted moving average plus a safety-stock buffer.
package forecast

import (
	"fmt"
	"time"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// MaxWeights caps the trailing window accepted from the configuration API.
const MaxWeights = 14

// WeightConfig is the per-branch forecast configuration.
// Weights[0] applies to yesterday, Weights[n-1] to n days ago.
type WeightConfig struct {
	BranchID           id.ID         `json:"branchId"`
	Weights            []types.Ratio `json:"weights"`
	SafetyStockPercent types.Ratio   `json:"safetyStockPercent"`
	UpdatedAt          *time.Time    `json:"updatedAt,omitempty"`

	// IsDefault is set when the branch has no stored configuration.
	IsDefault bool `json:"isDefault"`
}

// DefaultWeightConfig returns the configuration used when a branch has none.
func DefaultWeightConfig(branchID id.ID) WeightConfig {
	return WeightConfig{
		BranchID: branchID,
		Weights: []types.Ratio{
			types.MustRatio("0.5"),
			types.MustRatio("0.3"),
			types.MustRatio("0.2"),
		},
		SafetyStockPercent: types.MustRatio("10"),
		IsDefault:          true,
	}
}

// Window returns the trailing window length in days.
func (c WeightConfig) Window() int {
	return len(c.Weights)
}

// Validate checks a configuration submitted for storage.
func (c WeightConfig) Validate() error {
	if id.IsNil(c.BranchID) {
		return apperror.NewValidation("branchId is required")
	}
	if len(c.Weights) == 0 {
		return apperror.NewValidation("at least one weight is required")
	}
	if len(c.Weights) > MaxWeights {
		return apperror.NewValidation(fmt.Sprintf("at most %d weights are allowed", MaxWeights)).
			WithDetail("count", len(c.Weights))
	}

	positive := false
	for i, w := range c.Weights {
		if w.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("weight %d must not be negative", i)).
				WithDetail("index", i)
		}
		if w.IsPositive() {
			positive = true
		}
	}
	if !positive {
		return apperror.NewValidation("at least one weight must be positive")
	}

	if c.SafetyStockPercent.IsNegative() || c.SafetyStockPercent.GreaterThan(types.MustRatio("100")) {
		return apperror.NewValidation("safetyStockPercent must be between 0 and 100").
			WithDetail("safetyStockPercent", c.SafetyStockPercent.String())
	}
	return nil
}

// usable reports whether a stored configuration can drive the engine.
func (c WeightConfig) usable() bool {
	return len(c.Weights) > 0
}

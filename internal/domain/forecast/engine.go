package forecast

import (
	"github.com/shopspring/decimal"

	"lumpiah/internal/core/types"
)

// Calculation is the structured trace of one forecast. It is persisted with the
// plan so views can re-render it without parsing the log string.
type Calculation struct {
	SalesHistory       []int         `json:"salesHistory"`
	Weights            []types.Ratio `json:"weights"`
	SafetyStockPercent types.Ratio   `json:"safetyStockPercent"`
	WMA                int           `json:"wma"`
	SafetyStock        int           `json:"safetyStock"`
	Total              int           `json:"total"`
}

// Result is the engine output.
type Result struct {
	Qty         int         `json:"qty"`
	Log         string      `json:"log"`
	Calculation Calculation `json:"calculation"`
}

// Compute returns the recommended production quantity:
//
//	wma            = ceil(sum(salesHistory[i] * weights[i]))
//	safetyStock    = ceil(wma * safetyStockPercent / 100)
//	recommendedQty = wma + safetyStock
//
// salesHistory is aligned with weights (index 0 = yesterday); missing days count as zero
// and extra days are ignored. Rounding is always upwards.
func Compute(weights []types.Ratio, safetyStockPercent types.Ratio, salesHistory []int) Result {
	history := make([]int, len(weights))
	copy(history, salesHistory)

	sum := decimal.Zero
	for i, w := range weights {
		sum = sum.Add(decimal.NewFromInt(int64(history[i])).Mul(w))
	}

	wma := max(types.CeilInt(sum), 0)
	safety := max(types.CeilInt(types.PercentOf(decimal.NewFromInt(wma), safetyStockPercent)), 0)

	calc := Calculation{
		SalesHistory:       history,
		Weights:            append([]types.Ratio(nil), weights...),
		SafetyStockPercent: safetyStockPercent,
		WMA:                int(wma),
		SafetyStock:        int(safety),
		Total:              int(wma + safety),
	}

	return Result{
		Qty:         calc.Total,
		Log:         RenderLog(calc),
		Calculation: calc,
	}
}

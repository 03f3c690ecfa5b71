package forecast

import (
	"context"
	"fmt"
	"time"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// DailySales is the quantity of one product sold on one UTC day (paid transactions only).
type DailySales struct {
	ProductID id.ID     `db:"product_id"`
	Day       time.Time `db:"sale_day"`
	Quantity  int       `db:"quantity"`
}

// SalesRepository reads the transaction ledger.
type SalesRepository interface {
	// SumSoldQuantityByProductAndDay sums paid transaction item quantities per product
	// and UTC day for the branch within [from, to).
	SumSoldQuantityByProductAndDay(ctx context.Context, productIDs []id.ID, branchID id.ID, from, to time.Time) ([]DailySales, error)
}

// History aggregates per-product, per-day sold quantities over a trailing window.
type History struct {
	repo SalesRepository
}

// NewHistory creates a sales history aggregator.
func NewHistory(repo SalesRepository) *History {
	return &History{repo: repo}
}

// Window returns, for each product, the last n days of sales before day, aligned so that
// index 0 is the day before and index n-1 is n days before. Days without sales are zero.
// All products share one ledger read.
func (h *History) Window(ctx context.Context, branchID id.ID, day types.Day, productIDs []id.ID, n int) (map[id.ID][]int, error) {
	series := make(map[id.ID][]int, len(productIDs))
	for _, pid := range productIDs {
		series[pid] = make([]int, max(n, 0))
	}
	if n <= 0 || len(productIDs) == 0 {
		return series, nil
	}

	rows, err := h.repo.SumSoldQuantityByProductAndDay(ctx, productIDs, branchID, day.AddDays(-n).Start(), day.Start())
	if err != nil {
		return nil, fmt.Errorf("sum sold quantities: %w", err)
	}

	for _, row := range rows {
		s, ok := series[row.ProductID]
		if !ok {
			continue
		}
		offset := types.DayOf(row.Day).DaysUntil(day) - 1
		if offset < 0 || offset >= n {
			continue
		}
		s[offset] += row.Quantity
	}

	return series, nil
}

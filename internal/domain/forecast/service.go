package forecast

import (
	"context"
	"fmt"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

// Service runs the engine against stored configuration and sales history.
type Service struct {
	configs ConfigReader
	history *History
}

// NewService creates a forecast service.
func NewService(configs ConfigReader, sales SalesRepository) *Service {
	return &Service{
		configs: configs,
		history: NewHistory(sales),
	}
}

// Forecast computes the recommendation for a single product on day.
func (s *Service) Forecast(ctx context.Context, branchID id.ID, day types.Day, productID id.ID) (Result, error) {
	cfg, err := s.configs.GetWeightConfig(ctx, branchID)
	if err != nil {
		return Result{}, err
	}

	series, err := s.history.Window(ctx, branchID, day, []id.ID{productID}, cfg.Window())
	if err != nil {
		return Result{}, fmt.Errorf("forecast %s: %w", productID, err)
	}

	return Compute(cfg.Weights, cfg.SafetyStockPercent, series[productID]), nil
}

// ForecastBatch computes recommendations for many products with one configuration
// read and one sales-history read. Each result equals Forecast for that product.
func (s *Service) ForecastBatch(ctx context.Context, branchID id.ID, day types.Day, productIDs []id.ID) (map[id.ID]Result, error) {
	results := make(map[id.ID]Result, len(productIDs))
	if len(productIDs) == 0 {
		return results, nil
	}

	cfg, err := s.configs.GetWeightConfig(ctx, branchID)
	if err != nil {
		return nil, err
	}

	series, err := s.history.Window(ctx, branchID, day, productIDs, cfg.Window())
	if err != nil {
		return nil, fmt.Errorf("forecast batch: %w", err)
	}

	for _, pid := range productIDs {
		results[pid] = Compute(cfg.Weights, cfg.SafetyStockPercent, series[pid])
	}
	return results, nil
}

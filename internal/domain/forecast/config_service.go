package forecast

import (
	"context"
	"fmt"
	"time"

	"lumpiah/internal/core/id"
	"lumpiah/pkg/logger"
)

// ConfigRepository persists weight configurations.
type ConfigRepository interface {
	// Get returns the stored configuration or nil when the branch has none.
	Get(ctx context.Context, branchID id.ID) (*WeightConfig, error)

	// Save creates or replaces the configuration of a branch.
	Save(ctx context.Context, cfg WeightConfig) error
}

// ConfigReader is what the engine needs: a configuration that is never absent.
type ConfigReader interface {
	GetWeightConfig(ctx context.Context, branchID id.ID) (WeightConfig, error)
}

// ConfigService is the weight configuration store.
type ConfigService struct {
	repo ConfigRepository
	now  func() time.Time
}

// NewConfigService creates a configuration service.
func NewConfigService(repo ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo, now: time.Now}
}

var _ ConfigReader = (*ConfigService)(nil)

// GetWeightConfig returns the branch configuration, or the defaults when none is stored.
func (s *ConfigService) GetWeightConfig(ctx context.Context, branchID id.ID) (WeightConfig, error) {
	cfg, err := s.repo.Get(ctx, branchID)
	if err != nil {
		return WeightConfig{}, fmt.Errorf("get weight config: %w", err)
	}
	if cfg == nil {
		return DefaultWeightConfig(branchID), nil
	}
	if !cfg.usable() {
		logger.Warn(ctx, "stored weight config has no weights, using defaults", "branch_id", branchID)
		return DefaultWeightConfig(branchID), nil
	}
	return *cfg, nil
}

// UpdateWeightConfig validates and stores a configuration.
func (s *ConfigService) UpdateWeightConfig(ctx context.Context, cfg WeightConfig) (WeightConfig, error) {
	if err := cfg.Validate(); err != nil {
		return WeightConfig{}, err
	}

	now := s.now().UTC()
	cfg.UpdatedAt = &now
	cfg.IsDefault = false

	if err := s.repo.Save(ctx, cfg); err != nil {
		return WeightConfig{}, fmt.Errorf("save weight config: %w", err)
	}

	logger.Info(ctx, "weight config updated",
		"branch_id", cfg.BranchID,
		"window", cfg.Window(),
		"safety_stock_percent", cfg.SafetyStockPercent.String(),
	)
	return cfg, nil
}

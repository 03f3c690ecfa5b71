// Package forecast_repo stores per-branch forecast weight configurations.
package forecast_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
	"lumpiah/internal/infrastructure/storage/postgres"
)

// ChangeChannel is the NOTIFY channel carrying the branch id of a changed configuration.
const ChangeChannel = "forecast_weights_changed"

// WeightRepo implements forecast.ConfigRepository.
type WeightRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ forecast.ConfigRepository = (*WeightRepo)(nil)

// NewWeightRepo creates a new weight configuration repository.
func NewWeightRepo(txManager *postgres.TxManager) *WeightRepo {
	return &WeightRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// weightRow is the stored shape. Weights are a JSON array of decimal strings.
type weightRow struct {
	BranchID           id.ID     `db:"branch_id"`
	Weights            []byte    `db:"weights"`
	SafetyStockPercent string    `db:"safety_stock_percent"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r *WeightRepo) getQuery(branchID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("branch_id", "weights", "safety_stock_percent::text AS safety_stock_percent", "updated_at").
		From("forecast_weight_configs").
		Where(squirrel.Eq{"branch_id": branchID.String()})
}

// Get returns the stored configuration or nil when the branch has none.
func (r *WeightRepo) Get(ctx context.Context, branchID id.ID) (*forecast.WeightConfig, error) {
	sql, args, err := r.getQuery(branchID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []weightRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select weight config: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return decodeRow(rows[0])
}

func decodeRow(row weightRow) (*forecast.WeightConfig, error) {
	var weights []types.Ratio
	if err := json.Unmarshal(row.Weights, &weights); err != nil {
		return nil, fmt.Errorf("decode weights of branch %s: %w", row.BranchID, err)
	}
	safety, err := types.ParseRatio(row.SafetyStockPercent)
	if err != nil {
		return nil, fmt.Errorf("decode safety stock of branch %s: %w", row.BranchID, err)
	}

	updated := row.UpdatedAt.UTC()
	return &forecast.WeightConfig{
		BranchID:           row.BranchID,
		Weights:            weights,
		SafetyStockPercent: safety,
		UpdatedAt:          &updated,
	}, nil
}

func (r *WeightRepo) upsertQuery(cfg forecast.WeightConfig, weights []byte, updatedAt time.Time) squirrel.InsertBuilder {
	return r.builder.
		Insert("forecast_weight_configs").
		Columns("branch_id", "weights", "safety_stock_percent", "updated_at").
		Values(cfg.BranchID.String(), weights, cfg.SafetyStockPercent.String(), updatedAt).
		Suffix("ON CONFLICT (branch_id) DO UPDATE SET " +
			"weights = EXCLUDED.weights, " +
			"safety_stock_percent = EXCLUDED.safety_stock_percent, " +
			"updated_at = EXCLUDED.updated_at")
}

// Save upserts the configuration and notifies listeners on commit.
func (r *WeightRepo) Save(ctx context.Context, cfg forecast.WeightConfig) error {
	weights, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	updatedAt := time.Now().UTC()
	if cfg.UpdatedAt != nil {
		updatedAt = *cfg.UpdatedAt
	}

	sql, args, err := r.upsertQuery(cfg, weights, updatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("upsert weight config: %w", err)
		}
		if _, err := q.Exec(ctx, "SELECT pg_notify($1, $2)", ChangeChannel, cfg.BranchID.String()); err != nil {
			return fmt.Errorf("notify weight change: %w", err)
		}
		return nil
	})
}

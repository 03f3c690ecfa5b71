package forecast_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/forecast"
)

func TestGetQuery(t *testing.T) {
	repo := NewWeightRepo(nil)
	branch := id.New()

	sql, args, err := repo.getQuery(branch).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT branch_id, weights, safety_stock_percent::text AS safety_stock_percent, updated_at "+
			"FROM forecast_weight_configs WHERE branch_id = $1",
		sql)
	assert.Equal(t, []any{branch.String()}, args)
}

func TestUpsertQuery(t *testing.T) {
	repo := NewWeightRepo(nil)
	cfg := forecast.DefaultWeightConfig(id.New())
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	sql, args, err := repo.upsertQuery(cfg, []byte(`["0.5"]`), at).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO forecast_weight_configs (branch_id,weights,safety_stock_percent,updated_at) VALUES ($1,$2,$3,$4)")
	assert.Contains(t, sql, "ON CONFLICT (branch_id) DO UPDATE SET")
	assert.Equal(t, []any{cfg.BranchID.String(), []byte(`["0.5"]`), "10", at}, args)
}

func TestUpsertQuery_SafetyStockPassesExactText(t *testing.T) {
	repo := NewWeightRepo(nil)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for _, pct := range []string{"100", "0", "12.345678"} {
		cfg := forecast.WeightConfig{BranchID: id.New(), Weights: []types.Ratio{types.MustRatio("1")}, SafetyStockPercent: types.MustRatio(pct)}
		require.NoError(t, cfg.Validate(), pct)

		_, args, err := repo.upsertQuery(cfg, []byte(`["1"]`), at).ToSql()
		require.NoError(t, err)
		assert.Equal(t, pct, args[2], pct)
	}
}

func TestDecodeRow_FullRangeSafetyStock(t *testing.T) {
	cfg, err := decodeRow(weightRow{
		BranchID:           id.New(),
		Weights:            []byte(`["1"]`),
		SafetyStockPercent: "100",
	})
	require.NoError(t, err)
	assert.True(t, cfg.SafetyStockPercent.Equal(types.MustRatio("100")))
}

func TestDecodeRow(t *testing.T) {
	branch := id.New()
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	cfg, err := decodeRow(weightRow{
		BranchID:           branch,
		Weights:            []byte(`["0.6", 0.4]`),
		SafetyStockPercent: "12.50",
		UpdatedAt:          at,
	})
	require.NoError(t, err)

	require.Len(t, cfg.Weights, 2)
	assert.True(t, cfg.Weights[0].Equal(types.MustRatio("0.6")))
	assert.True(t, cfg.Weights[1].Equal(types.MustRatio("0.4")))
	assert.True(t, cfg.SafetyStockPercent.Equal(types.MustRatio("12.5")))
	assert.False(t, cfg.IsDefault)
	assert.Equal(t, at, *cfg.UpdatedAt)
}

func TestDecodeRow_InvalidWeights(t *testing.T) {
	_, err := decodeRow(weightRow{BranchID: id.New(), Weights: []byte(`{}`), SafetyStockPercent: "10"})
	assert.Error(t, err)
}

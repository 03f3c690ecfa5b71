package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

type memoryConfigs struct {
	stored map[id.ID]WeightConfig
}

func (m *memoryConfigs) Get(_ context.Context, branchID id.ID) (*WeightConfig, error) {
	cfg, ok := m.stored[branchID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (m *memoryConfigs) Save(_ context.Context, cfg WeightConfig) error {
	if m.stored == nil {
		m.stored = map[id.ID]WeightConfig{}
	}
	m.stored[cfg.BranchID] = cfg
	return nil
}

func TestConfigService_DefaultsWhenAbsent(t *testing.T) {
	svc := NewConfigService(&memoryConfigs{})
	branch := id.New()

	cfg, err := svc.GetWeightConfig(context.Background(), branch)
	require.NoError(t, err)

	assert.True(t, cfg.IsDefault)
	assert.Equal(t, branch, cfg.BranchID)
	assert.Equal(t, 3, cfg.Window())
	assert.Equal(t, "10", cfg.SafetyStockPercent.String())
}

func TestConfigService_DefaultsWhenStoredEmpty(t *testing.T) {
	branch := id.New()
	repo := &memoryConfigs{stored: map[id.ID]WeightConfig{
		branch: {BranchID: branch, SafetyStockPercent: types.MustRatio("5")},
	}}
	svc := NewConfigService(repo)

	cfg, err := svc.GetWeightConfig(context.Background(), branch)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault)
}

func TestConfigService_UpdateAndRead(t *testing.T) {
	repo := &memoryConfigs{}
	svc := NewConfigService(repo)
	branch := id.New()

	saved, err := svc.UpdateWeightConfig(context.Background(), WeightConfig{
		BranchID:           branch,
		Weights:            ratios("0.6", "0.4"),
		SafetyStockPercent: types.MustRatio("20"),
		IsDefault:          true,
	})
	require.NoError(t, err)
	assert.False(t, saved.IsDefault)
	require.NotNil(t, saved.UpdatedAt)

	got, err := svc.GetWeightConfig(context.Background(), branch)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Window())
	assert.False(t, got.IsDefault)
}

func TestWeightConfig_Validate(t *testing.T) {
	branch := id.New()
	tooMany := make([]types.Ratio, MaxWeights+1)
	for i := range tooMany {
		tooMany[i] = types.MustRatio("0.1")
	}

	tests := []struct {
		name    string
		cfg     WeightConfig
		wantErr bool
	}{
		{"valid", WeightConfig{BranchID: branch, Weights: ratios("0.5", "0.5"), SafetyStockPercent: types.MustRatio("10")}, false},
		{"missing branch", WeightConfig{Weights: ratios("1"), SafetyStockPercent: types.MustRatio("0")}, true},
		{"no weights", WeightConfig{BranchID: branch, SafetyStockPercent: types.MustRatio("0")}, true},
		{"too many weights", WeightConfig{BranchID: branch, Weights: tooMany, SafetyStockPercent: types.MustRatio("0")}, true},
		{"negative weight", WeightConfig{BranchID: branch, Weights: ratios("1", "-0.1"), SafetyStockPercent: types.MustRatio("0")}, true},
		{"all zero weights", WeightConfig{BranchID: branch, Weights: ratios("0", "0"), SafetyStockPercent: types.MustRatio("0")}, true},
		{"safety at 100", WeightConfig{BranchID: branch, Weights: ratios("1"), SafetyStockPercent: types.MustRatio("100")}, false},
		{"safety with fine scale", WeightConfig{BranchID: branch, Weights: ratios("1"), SafetyStockPercent: types.MustRatio("12.345678")}, false},
		{"safety above 100", WeightConfig{BranchID: branch, Weights: ratios("1"), SafetyStockPercent: types.MustRatio("100.5")}, true},
		{"negative safety", WeightConfig{BranchID: branch, Weights: ratios("1"), SafetyStockPercent: types.MustRatio("-1")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestService_BatchMatchesSingle(t *testing.T) {
	branch := id.New()
	p1, p2, p3 := id.New(), id.New(), id.New()
	sales := &mockSales{rows: []DailySales{
		sale(p1, "2024-05-19", 120),
		sale(p1, "2024-05-18", 100),
		sale(p1, "2024-05-17", 80),
		sale(p2, "2024-05-19", 3),
		sale(p2, "2024-05-17", 11),
	}}
	svc := NewService(NewConfigService(&memoryConfigs{}), sales)
	day := types.MustParseDay("2024-05-20")
	ctx := context.Background()

	batch, err := svc.ForecastBatch(ctx, branch, day, []id.ID{p1, p2, p3})
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for _, pid := range []id.ID{p1, p2, p3} {
		single, err := svc.Forecast(ctx, branch, day, pid)
		require.NoError(t, err)
		assert.Equal(t, single, batch[pid])
	}
	assert.Equal(t, 117, batch[p1].Qty)
	assert.Equal(t, 0, batch[p3].Qty)
}

func TestService_BatchEmpty(t *testing.T) {
	sales := &mockSales{}
	svc := NewService(NewConfigService(&memoryConfigs{}), sales)

	out, err := svc.ForecastBatch(context.Background(), id.New(), types.MustParseDay("2024-05-20"), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, sales.calls)
}

package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
)

func TestInsightFor(t *testing.T) {
	assert.Equal(t, InsightPotentialWaste, InsightFor(10, 8))
	assert.Equal(t, InsightHighDemand, InsightFor(8, 10))
	assert.Equal(t, InsightBalanced, InsightFor(10, 10))
	assert.Equal(t, InsightBalanced, InsightFor(0, 0))
}

func TestGetAccuracy_Empty(t *testing.T) {
	f := newFixture()

	report, err := f.svc.GetAccuracy(context.Background(), &f.branch, types.DayOf(testNow))
	require.NoError(t, err)

	assert.Empty(t, report.Items)
	assert.NotNil(t, report.Items)
	assert.Equal(t, AccuracySummary{}, report.Summary)
	assert.Zero(t, f.sales.calls)
}

func (f *fixture) complete(t *testing.T, planID id.ID, qty int) {
	t.Helper()
	_, err := f.svc.SubmitRealization(context.Background(), "u", planID, RealizationInput{ActualQty: qty, Status: StatusCompleted})
	require.NoError(t, err)
}

func TestGetAccuracy_Insights(t *testing.T) {
	f := newFixture("Bakpia", "Lumpia", "Risoles")
	day := types.DayOf(testNow).AddDays(-1)

	bakpia := f.seedPlan(f.products[0].ID, day, 100, testNow, StatusInProgress)
	lumpia := f.seedPlan(f.products[1].ID, day, 50, testNow, StatusInProgress)
	risoles := f.seedPlan(f.products[2].ID, day, 30, testNow, StatusInProgress)
	f.complete(t, bakpia.ID, 110)
	f.complete(t, lumpia.ID, 40)
	f.complete(t, risoles.ID, 30)

	f.sales.sold = map[id.ID]int{
		f.products[0].ID: 90,
		f.products[1].ID: 55,
		f.products[2].ID: 30,
	}

	report, err := f.svc.GetAccuracy(context.Background(), &f.branch, day)
	require.NoError(t, err)
	require.Len(t, report.Items, 3)

	assert.Equal(t, "Bakpia", report.Items[0].ProductName)
	assert.Equal(t, InsightPotentialWaste, report.Items[0].Insight)
	assert.Equal(t, 10, report.Items[0].Deviation)
	assert.Equal(t, 20, report.Items[0].SalesGap)

	assert.Equal(t, InsightHighDemand, report.Items[1].Insight)
	assert.Equal(t, InsightBalanced, report.Items[2].Insight)

	assert.Equal(t, AccuracySummary{
		Products:        3,
		TotalTarget:     180,
		TotalProduction: 180,
		TotalSold:       175,
		TotalDeviation:  0,
		WasteCount:      1,
		HighDemandCount: 1,
		BalancedCount:   1,
	}, report.Summary)
	assert.Equal(t, &f.branch, f.sales.branchID)
}

func TestGetAccuracy_AggregatesDuplicatePlans(t *testing.T) {
	f := newFixture("Bakpia")
	day := types.DayOf(testNow)
	pid := f.products[0].ID

	a := f.seedPlan(pid, day, 100, testNow.Add(-time.Hour), StatusInProgress)
	b := f.seedPlan(pid, day, 20, testNow, StatusInProgress)
	f.complete(t, a.ID, 60)
	f.complete(t, b.ID, 15)
	f.sales.sold = map[id.ID]int{pid: 75}

	report, err := f.svc.GetAccuracy(context.Background(), &f.branch, day)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.Equal(t, 120, item.Target)
	assert.Equal(t, 75, item.Production)
	assert.Equal(t, 75, item.Sold)
	assert.Equal(t, InsightBalanced, item.Insight)
}

func TestGetAccuracy_FutureDayHasNoSales(t *testing.T) {
	f := newFixture("Bakpia")
	day := types.DayOf(testNow).AddDays(1)
	f.seedPlan(f.products[0].ID, day, 40, testNow, StatusInProgress)
	f.sales.sold = map[id.ID]int{f.products[0].ID: 999}

	report, err := f.svc.GetAccuracy(context.Background(), &f.branch, day)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 0, report.Items[0].Sold)
	assert.Equal(t, 0, report.Items[0].Production)
	assert.Equal(t, InsightBalanced, report.Items[0].Insight)
	assert.Zero(t, f.sales.calls)
}

func TestGetAccuracy_AllBranches(t *testing.T) {
	f := newFixture("Bakpia")
	day := types.DayOf(testNow)
	f.seedPlan(f.products[0].ID, day, 40, testNow, StatusInProgress)

	report, err := f.svc.GetAccuracy(context.Background(), nil, day)
	require.NoError(t, err)
	assert.Len(t, report.Items, 1)
	assert.Nil(t, report.BranchID)
	assert.Nil(t, f.sales.branchID)
}

package production

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/tx"
	"lumpiah/internal/core/types"
)

func TestEnsurePlans_GeneratesOnePlanPerProduct(t *testing.T) {
	f := newFixture()
	today := types.DayOf(testNow)

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, today, false)
	require.NoError(t, err)
	require.Len(t, views, 3)

	// sorted by product name
	assert.Equal(t, "Bakpia Keju", views[0].ProductName)
	assert.Equal(t, "Lumpia Sayur", views[1].ProductName)
	assert.Equal(t, "Risoles Mayo", views[2].ProductName)

	for _, v := range views {
		assert.Equal(t, StatusInProgress, v.Status)
		assert.Equal(t, f.forecaster.qty[v.ProductID], v.RecommendedQty)
		require.NotNil(t, v.ActualQty)
		require.NotNil(t, v.Deviation)
		assert.Equal(t, 0, *v.ActualQty)
		assert.Equal(t, -v.RecommendedQty, *v.Deviation)
		assert.Equal(t, today, v.PlanDate)
		assert.NotNil(t, v.RealizationID)
	}

	plans, realizations := f.repo.counts()
	assert.Equal(t, 3, plans)
	assert.Equal(t, 3, realizations)

	generated := f.events.ofType(EventPlansGenerated)
	require.Len(t, generated, 1)
	payload := generated[0].Payload.(PlansGeneratedPayload)
	assert.Len(t, payload.PlanIDs, 3)
	assert.Equal(t, f.branch, generated[0].AggregateID)

	assert.EqualValues(t, 3, f.svc.Metrics().PlansCreated())
	assert.Zero(t, f.svc.Metrics().GenerationFailures())
}

func TestEnsurePlans_UsesBoundedSerializableTransaction(t *testing.T) {
	f := newFixture()

	_, err := f.svc.EnsurePlans(context.Background(), f.branch, types.DayOf(testNow), false)
	require.NoError(t, err)

	require.Len(t, f.txm.opts, 1)
	assert.Equal(t, tx.Options{
		Isolation: tx.Serializable,
		MaxWait:   5 * time.Second,
		Timeout:   10 * time.Second,
	}, f.txm.opts[0])
}

func TestEnsurePlans_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	today := types.DayOf(testNow)

	first, err := f.svc.EnsurePlans(ctx, f.branch, today, false)
	require.NoError(t, err)
	second, err := f.svc.EnsurePlans(ctx, f.branch, today, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.forecaster.calls)
	assert.Equal(t, 1, f.txm.calls)

	plans, _ := f.repo.counts()
	assert.Equal(t, 3, plans)
}

func TestEnsurePlans_OnlyMissingProductsGenerated(t *testing.T) {
	f := newFixture()
	today := types.DayOf(testNow)
	existing := f.seedPlan(f.products[0].ID, today, 42, testNow.Add(-time.Hour), StatusCompleted)

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, today, false)
	require.NoError(t, err)
	require.Len(t, views, 3)

	for _, v := range views {
		if v.ProductID == existing.ProductID {
			assert.Equal(t, existing.ID, v.PlanID)
			assert.Equal(t, 42, v.RecommendedQty)
			assert.Equal(t, StatusCompleted, v.Status)
		}
	}
	plans, _ := f.repo.counts()
	assert.Equal(t, 3, plans)
}

func TestEnsurePlans_ConcurrentCallersCreateSinglePlanSet(t *testing.T) {
	f := newFixture()
	today := types.DayOf(testNow)

	const callers = 8
	results := make([][]PlanView, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.EnsurePlans(context.Background(), f.branch, today, false)
		}(i)
	}
	wg.Wait()

	plans, realizations := f.repo.counts()
	assert.Equal(t, 3, plans)
	assert.Equal(t, 3, realizations)

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 3)
		for j := range results[i] {
			assert.Equal(t, results[0][j].PlanID, results[i][j].PlanID)
		}
	}
	assert.Len(t, f.events.ofType(EventPlansGenerated), 1)
}

func TestEnsurePlans_FutureDayGate(t *testing.T) {
	tomorrow := types.DayOf(testNow).AddDays(1)

	t.Run("init false returns existing only", func(t *testing.T) {
		f := newFixture()
		views, err := f.svc.EnsurePlans(context.Background(), f.branch, tomorrow, false)
		require.NoError(t, err)
		assert.Empty(t, views)
		assert.Zero(t, f.forecaster.calls)

		plans, _ := f.repo.counts()
		assert.Zero(t, plans)
	})

	t.Run("init true generates", func(t *testing.T) {
		f := newFixture()
		views, err := f.svc.EnsurePlans(context.Background(), f.branch, tomorrow, true)
		require.NoError(t, err)
		assert.Len(t, views, 3)
	})

	t.Run("past day generates without init", func(t *testing.T) {
		f := newFixture()
		views, err := f.svc.EnsurePlans(context.Background(), f.branch, types.DayOf(testNow).AddDays(-3), false)
		require.NoError(t, err)
		assert.Len(t, views, 3)
	})
}

func TestEnsurePlans_GenerationFailureIsRecovered(t *testing.T) {
	f := newFixture()
	today := types.DayOf(testNow)
	existing := f.seedPlan(f.products[1].ID, today, 7, testNow.Add(-time.Hour), StatusInProgress)
	f.repo.createErr = apperror.NewTransientStorage(errors.New("could not serialize access"))

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, today, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, existing.ID, views[0].PlanID)

	plans, realizations := f.repo.counts()
	assert.Equal(t, 1, plans)
	assert.Equal(t, 1, realizations)
	assert.Empty(t, f.events.ofType(EventPlansGenerated))
	assert.EqualValues(t, 1, f.svc.Metrics().GenerationFailures())
}

func TestEnsurePlans_ForecastFailureIsRecovered(t *testing.T) {
	f := newFixture()
	f.forecaster.err = errors.New("sales ledger unavailable")

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, types.DayOf(testNow), false)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Zero(t, f.txm.calls)
	assert.EqualValues(t, 1, f.svc.Metrics().GenerationFailures())
}

func TestEnsurePlans_OutboxFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("outbox insert failed")

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, types.DayOf(testNow), false)
	require.NoError(t, err)
	assert.Empty(t, views)

	plans, realizations := f.repo.counts()
	assert.Zero(t, plans)
	assert.Zero(t, realizations)
}

func TestEnsurePlans_ProductReadFailurePropagates(t *testing.T) {
	f := newFixture()
	svc := NewService(ServiceConfig{
		Products:   &stubProducts{err: errors.New("catalog down")},
		Plans:      f.repo,
		Forecaster: f.forecaster,
		TxManager:  f.txm,
		Now:        func() time.Time { return testNow },
	})

	_, err := svc.EnsurePlans(context.Background(), f.branch, types.DayOf(testNow), false)
	assert.ErrorContains(t, err, "catalog down")
}

func TestEnsurePlans_DeduplicatesStoredDuplicates(t *testing.T) {
	f := newFixture("Onde-onde")
	today := types.DayOf(testNow)
	pid := f.products[0].ID

	f.seedPlan(pid, today, 10, testNow.Add(-2*time.Hour), StatusInProgress)
	completed := f.seedPlan(pid, today, 12, testNow.Add(-time.Hour), StatusCompleted)

	views, err := f.svc.EnsurePlans(context.Background(), f.branch, today, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, completed.ID, views[0].PlanID)
	assert.Equal(t, StatusCompleted, views[0].Status)
}

func TestEnsurePlans_Lock(t *testing.T) {
	today := types.DayOf(testNow)

	tests := []struct {
		name         string
		locker       *stubLocker
		wantReleased int
	}{
		{"obtained", &stubLocker{obtained: true}, 1},
		{"held elsewhere", &stubLocker{obtained: false}, 0},
		{"redis unavailable", &stubLocker{err: errors.New("dial tcp: connection refused")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.build(tt.locker)

			views, err := svc.EnsurePlans(context.Background(), f.branch, today, false)
			require.NoError(t, err)
			assert.Len(t, views, 3)

			require.Len(t, tt.locker.keys, 1)
			assert.Equal(t, LockKey(f.branch, today), tt.locker.keys[0])
			assert.Equal(t, tt.wantReleased, tt.locker.released)
		})
	}
}

func TestLockKey(t *testing.T) {
	branch := id.MustParse("0190a0b4-0000-7000-8000-000000000001")
	assert.Equal(t,
		"production:plans:0190a0b4-0000-7000-8000-000000000001:2024-06-15",
		LockKey(branch, types.MustParseDay("2024-06-15")))
}

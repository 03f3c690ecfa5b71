package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/storage/postgres"
	"lumpiah/pkg/logger"
)

type stubBranches struct {
	branches []catalog.Branch
	err      error
}

func (s stubBranches) GetActiveBranches(context.Context) ([]catalog.Branch, error) {
	return s.branches, s.err
}

type recordingEnsurer struct {
	fail  map[id.ID]bool
	calls []id.ID
	days  []types.Day
	init  []bool
}

func (r *recordingEnsurer) EnsurePlans(_ context.Context, branchID id.ID, day types.Day, allowFutureInit bool) ([]production.PlanView, error) {
	r.calls = append(r.calls, branchID)
	r.days = append(r.days, day)
	r.init = append(r.init, allowFutureInit)
	if r.fail[branchID] {
		return nil, errors.New("boom")
	}
	return []production.PlanView{{}}, nil
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC), 3, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)},
		{"already passed", time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC), 3, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)},
		{"exactly on the hour", time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), 3, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC), 0, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"non utc input", time.Date(2026, 3, 10, 1, 0, 0, 0, time.FixedZone("WIB", 7*3600)), 3, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, tt.hour)), "got %s", NextRun(tt.now, tt.hour))
		})
	}
}

func TestNewPregenerator_ClampsHour(t *testing.T) {
	p := NewPregenerator(stubBranches{}, &recordingEnsurer{}, 42, logger.Nop())
	assert.Equal(t, 0, p.hour)
}

func TestRunOnce(t *testing.T) {
	a, b, c := id.New(), id.New(), id.New()
	day := types.MustParseDay("2026-03-11")

	t.Run("continues past failing branch", func(t *testing.T) {
		ensurer := &recordingEnsurer{fail: map[id.ID]bool{b: true}}
		p := NewPregenerator(stubBranches{branches: []catalog.Branch{{ID: a}, {ID: b}, {ID: c}}}, ensurer, 3, logger.Nop())

		assert.Equal(t, 2, p.RunOnce(context.Background(), day))
		assert.Equal(t, []id.ID{a, b, c}, ensurer.calls)
		for i := range ensurer.days {
			assert.True(t, ensurer.days[i].Equal(day))
			assert.True(t, ensurer.init[i])
		}
	})

	t.Run("branch listing fails", func(t *testing.T) {
		ensurer := &recordingEnsurer{}
		p := NewPregenerator(stubBranches{err: errors.New("db down")}, ensurer, 3, logger.Nop())

		assert.Equal(t, 0, p.RunOnce(context.Background(), day))
		assert.Empty(t, ensurer.calls)
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := NewPregenerator(stubBranches{}, &recordingEnsurer{}, 3, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLogHandler(t *testing.T) {
	h := NewLogHandler(logger.Nop())
	err := h.Handle(context.Background(), &postgres.OutboxMessage{
		ID:        id.New(),
		EventType: production.EventPlansGenerated,
		Payload:   []byte(`{"count":3}`),
	})
	require.NoError(t, err)
}

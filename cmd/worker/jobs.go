package main

import (
	"context"
	"time"

	"lumpiah/internal/core/id"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/storage/postgres"
	"lumpiah/pkg/logger"
)

// PlanEnsurer materializes plans for a branch and day.
type PlanEnsurer interface {
	EnsurePlans(ctx context.Context, branchID id.ID, day types.Day, allowFutureInit bool) ([]production.PlanView, error)
}

// Pregenerator creates the next day's plans once a day so the first
// request of the morning finds them ready.
type Pregenerator struct {
	branches catalog.BranchReader
	plans    PlanEnsurer
	hour     int
	log      *logger.Logger
	now      func() time.Time
}

// NewPregenerator runs at hour (UTC) every day. Out-of-range hours fall back to 0.
func NewPregenerator(branches catalog.BranchReader, plans PlanEnsurer, hour int, log *logger.Logger) *Pregenerator {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	return &Pregenerator{
		branches: branches,
		plans:    plans,
		hour:     hour,
		log:      log.WithComponent("pregen"),
		now:      time.Now,
	}
}

// NextRun returns the first instant at hour:00 UTC strictly after now.
func NextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled.
func (p *Pregenerator) Run(ctx context.Context) {
	for {
		next := NextRun(p.now(), p.hour)
		timer := time.NewTimer(next.Sub(p.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			p.RunOnce(ctx, types.DayOf(next).AddDays(1))
		}
	}
}

// RunOnce ensures plans for every active branch on day and returns how many
// branches succeeded. A failing branch does not stop the others.
func (p *Pregenerator) RunOnce(ctx context.Context, day types.Day) int {
	branches, err := p.branches.GetActiveBranches(ctx)
	if err != nil {
		p.log.Errorw("list active branches", "error", err)
		return 0
	}

	ok := 0
	for _, b := range branches {
		views, err := p.plans.EnsurePlans(ctx, b.ID, day, true)
		if err != nil {
			p.log.Errorw("pre-generate plans", "branch_id", b.ID, "date", day, "error", err)
			continue
		}
		ok++
		p.log.Infow("plans ready", "branch_id", b.ID, "date", day, "count", len(views))
	}
	return ok
}

// LogHandler delivers outbox messages to the structured log. It stands in
// for a broker until one is configured.
type LogHandler struct {
	log *logger.Logger
}

var _ postgres.OutboxHandler = (*LogHandler)(nil)

func NewLogHandler(log *logger.Logger) *LogHandler {
	return &LogHandler{log: log.WithComponent("outbox")}
}

func (h *LogHandler) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload))
	return nil
}

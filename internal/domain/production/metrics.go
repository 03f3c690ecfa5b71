package production

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	tracer = otel.Tracer("lumpiah/production")
	meter  = otel.Meter("lumpiah/production")
)

// Metrics counts generation outcomes. Failed generations are otherwise silent
// because EnsurePlans recovers from them.
type Metrics struct {
	generationFailures metric.Int64Counter
	plansCreated       metric.Int64Counter

	failures atomic.Int64
	created  atomic.Int64
}

// NewMetrics registers the production counters with the global meter provider.
func NewMetrics() *Metrics {
	fallback := noop.NewMeterProvider().Meter("lumpiah/production")

	failures, err := meter.Int64Counter("production.plan_generation.failures",
		metric.WithDescription("Plan generation attempts abandoned after an error"))
	if err != nil {
		failures, _ = fallback.Int64Counter("production.plan_generation.failures")
	}
	created, err := meter.Int64Counter("production.plans.created",
		metric.WithDescription("Production plans created by materialization"))
	if err != nil {
		created, _ = fallback.Int64Counter("production.plans.created")
	}

	return &Metrics{generationFailures: failures, plansCreated: created}
}

func (m *Metrics) generationFailed(ctx context.Context, stage string) {
	m.failures.Add(1)
	m.generationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) plansGenerated(ctx context.Context, n int) {
	m.created.Add(int64(n))
	m.plansCreated.Add(ctx, int64(n))
}

// GenerationFailures returns the number of abandoned generations since start.
func (m *Metrics) GenerationFailures() int64 { return m.failures.Load() }

// PlansCreated returns the number of plans created since start.
func (m *Metrics) PlansCreated() int64 { return m.created.Load() }

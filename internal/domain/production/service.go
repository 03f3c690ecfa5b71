package production

import (
	"time"

	"lumpiah/internal/core/tx"
	"lumpiah/internal/domain/catalog"
)

const (
	DefaultGenerationMaxWait = 5 * time.Second
	DefaultGenerationTimeout = 10 * time.Second
	DefaultLockTTL           = 15 * time.Second
)

// Service owns plan materialization, realization updates and accuracy reporting.
type Service struct {
	products   catalog.ProductReader
	plans      PlanRepository
	sales      SalesReader
	forecaster Forecaster
	txManager  tx.Manager

	events  EventPublisher // optional
	audit   AuditLogger    // optional
	locker  Locker         // optional
	metrics *Metrics

	maxWait time.Duration
	timeout time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

// ServiceConfig configures the production service.
type ServiceConfig struct {
	Products   catalog.ProductReader
	Plans      PlanRepository
	Sales      SalesReader
	Forecaster Forecaster
	TxManager  tx.Manager

	Events  EventPublisher
	Audit   AuditLogger
	Locker  Locker
	Metrics *Metrics

	// GenerationMaxWait bounds acquiring the generation transaction (default 5s).
	GenerationMaxWait time.Duration
	// GenerationTimeout bounds the generation transaction body (default 10s).
	GenerationTimeout time.Duration
	LockTTL           time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a production service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		products:   cfg.Products,
		plans:      cfg.Plans,
		sales:      cfg.Sales,
		forecaster: cfg.Forecaster,
		txManager:  cfg.TxManager,
		events:     cfg.Events,
		audit:      cfg.Audit,
		locker:     cfg.Locker,
		metrics:    cfg.Metrics,
		maxWait:    cfg.GenerationMaxWait,
		timeout:    cfg.GenerationTimeout,
		lockTTL:    cfg.LockTTL,
		now:        cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.maxWait <= 0 {
		s.maxWait = DefaultGenerationMaxWait
	}
	if s.timeout <= 0 {
		s.timeout = DefaultGenerationTimeout
	}
	if s.lockTTL <= 0 {
		s.lockTTL = DefaultLockTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Metrics exposes generation counters.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

package production

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/id"
	"lumpiah/internal/core/tx"
	"lumpiah/internal/core/types"
	"lumpiah/internal/domain/catalog"
	"lumpiah/internal/domain/forecast"
)

var errNoTx = errors.New("write outside transaction")

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// memRepo is an in-memory PlanRepository. Writes require a memTx transaction.
type memRepo struct {
	mu           sync.Mutex
	names        map[id.ID]string
	plans        []Plan
	realizations []Realization

	createErr       error
	rejectUpdates   bool
	createPlanCalls int
}

func newMemRepo(products []catalog.Product) *memRepo {
	names := make(map[id.ID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return &memRepo{names: names}
}

func (r *memRepo) withRealizations(p Plan) Plan {
	p.ProductName = r.names[p.ProductID]
	p.Realizations = nil
	for _, rz := range r.realizations {
		if rz.PlanID == p.ID {
			p.Realizations = append(p.Realizations, rz)
		}
	}
	sort.Slice(p.Realizations, func(i, j int) bool {
		a, b := p.Realizations[i], p.Realizations[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return id.Compare(a.ID, b.ID) > 0
	})
	return p
}

func (r *memRepo) FindPlans(_ context.Context, f PlanFilter) ([]Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Plan
	for _, p := range r.plans {
		if f.BranchID != nil && p.BranchID != *f.BranchID {
			continue
		}
		if p.PlanDate.Before(f.From) || !p.PlanDate.Before(f.To) {
			continue
		}
		out = append(out, r.withRealizations(p))
	}
	return out, nil
}

func (r *memRepo) FindPlannedProductIDs(_ context.Context, branchID id.ID, from, to time.Time, productIDs []id.ID) ([]id.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[id.ID]bool, len(productIDs))
	for _, pid := range productIDs {
		want[pid] = true
	}
	var out []id.ID
	for _, p := range r.plans {
		if p.BranchID == branchID && !p.PlanDate.Before(from) && p.PlanDate.Before(to) && want[p.ProductID] {
			out = append(out, p.ProductID)
		}
	}
	return out, nil
}

func (r *memRepo) GetPlan(_ context.Context, planID id.ID) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plans {
		if p.ID == planID {
			out := r.withRealizations(p)
			return &out, nil
		}
	}
	return nil, apperror.NewNotFound("production plan", planID)
}

func (r *memRepo) CreatePlans(ctx context.Context, plans []Plan) error {
	if !inTx(ctx) {
		return errNoTx
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.createPlanCalls++
	if r.createErr != nil {
		return r.createErr
	}
	r.plans = append(r.plans, plans...)
	return nil
}

func (r *memRepo) CreateRealizations(ctx context.Context, rs []Realization) error {
	if !inTx(ctx) {
		return errNoTx
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.realizations = append(r.realizations, rs...)
	return nil
}

func (r *memRepo) UpdateRealization(ctx context.Context, upd RealizationUpdate) (bool, error) {
	if !inTx(ctx) {
		return false, errNoTx
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rejectUpdates {
		return false, nil
	}
	for i := range r.realizations {
		rz := &r.realizations[i]
		if rz.ID != upd.ID {
			continue
		}
		if rz.Status == StatusCompleted {
			return false, nil
		}
		rz.ActualQty = upd.ActualQty
		rz.Deviation = upd.Deviation
		rz.Notes = upd.Notes
		rz.Status = upd.Status
		rz.UpdatedAt = upd.UpdatedAt
		uid := upd.InputByUserID
		rz.InputByUserID = &uid
		return true, nil
	}
	return false, nil
}

func (r *memRepo) snapshot() ([]Plan, []Realization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Plan(nil), r.plans...), append([]Realization(nil), r.realizations...)
}

func (r *memRepo) restore(plans []Plan, rs []Realization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans, r.realizations = plans, rs
}

func (r *memRepo) counts() (plans, realizations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans), len(r.realizations)
}

// memTx runs transactions one at a time and rolls the repo back on error.
type memTx struct {
	mu    sync.Mutex
	repo  *memRepo
	opts  []tx.Options
	calls int
}

func (m *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, tx.Options{}, fn)
}

func (m *memTx) RunInTransactionWithOptions(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.opts = append(m.opts, opts)

	plans, rs := m.repo.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.repo.restore(plans, rs)
		return err
	}
	return nil
}

type stubProducts struct {
	products []catalog.Product
	err      error
}

func (s *stubProducts) GetActiveProducts(context.Context) ([]catalog.Product, error) {
	return s.products, s.err
}

type stubForecaster struct {
	mu    sync.Mutex
	qty   map[id.ID]int
	err   error
	calls int
}

func (s *stubForecaster) ForecastBatch(_ context.Context, _ id.ID, _ types.Day, productIDs []id.ID) (map[id.ID]forecast.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[id.ID]forecast.Result, len(productIDs))
	for _, pid := range productIDs {
		q := s.qty[pid]
		out[pid] = forecast.Result{Qty: q, Log: "stub", Calculation: forecast.Calculation{Total: q}}
	}
	return out, nil
}

type memEvents struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memEvents) Publish(ctx context.Context, e Event) error {
	if !inTx(ctx) {
		return errNoTx
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) ofType(t string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memAudit struct {
	changes []RealizationChange
}

func (m *memAudit) RecordRealizationChange(_ context.Context, c RealizationChange) error {
	m.changes = append(m.changes, c)
	return nil
}

type stubSales struct {
	sold     map[id.ID]int
	calls    int
	branchID *id.ID
}

func (s *stubSales) SumSoldQuantityByProduct(_ context.Context, branchID *id.ID, _, _ time.Time) (map[id.ID]int, error) {
	s.calls++
	s.branchID = branchID
	return s.sold, nil
}

type stubLocker struct {
	obtained bool
	err      error
	keys     []string
	released int
}

func (s *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil || !s.obtained {
		return nil, false, s.err
	}
	return func() { s.released++ }, true, nil
}

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	branch     id.ID
	products   []catalog.Product
	repo       *memRepo
	txm        *memTx
	forecaster *stubForecaster
	events     *memEvents
	audit      *memAudit
	sales      *stubSales
	svc        *Service
}

func newFixture(names ...string) *fixture {
	if len(names) == 0 {
		names = []string{"Lumpia Sayur", "Bakpia Keju", "Risoles Mayo"}
	}
	f := &fixture{
		branch:     id.New(),
		forecaster: &stubForecaster{qty: map[id.ID]int{}},
		events:     &memEvents{},
		audit:      &memAudit{},
		sales:      &stubSales{sold: map[id.ID]int{}},
	}
	for i, n := range names {
		p := catalog.Product{ID: id.New(), Name: n}
		f.products = append(f.products, p)
		f.forecaster.qty[p.ID] = 100 + i*10
	}
	f.repo = newMemRepo(f.products)
	f.txm = &memTx{repo: f.repo}
	f.svc = f.build(nil)
	return f
}

func (f *fixture) build(locker Locker) *Service {
	return NewService(ServiceConfig{
		Products:   &stubProducts{products: f.products},
		Plans:      f.repo,
		Sales:      f.sales,
		Forecaster: f.forecaster,
		TxManager:  f.txm,
		Events:     f.events,
		Audit:      f.audit,
		Locker:     locker,
		Metrics:    NewMetrics(),
		Now:        func() time.Time { return testNow },
	})
}

// seedPlan stores a plan directly, bypassing the materializer.
func (f *fixture) seedPlan(productID id.ID, day types.Day, qty int, createdAt time.Time, status Status) Plan {
	p := Plan{
		ID:             id.New(),
		BranchID:       f.branch,
		ProductID:      productID,
		PlanDate:       day.Start(),
		RecommendedQty: qty,
		CalculationLog: "seeded",
		CreatedAt:      createdAt,
	}
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	f.repo.plans = append(f.repo.plans, p)
	if status != StatusPending {
		f.repo.realizations = append(f.repo.realizations, Realization{
			ID:        id.New(),
			PlanID:    p.ID,
			Deviation: -qty,
			Status:    status,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}
	return p
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lumpiah/internal/core/apperror"
	"lumpiah/internal/core/tx"
	"lumpiah/pkg/logger"
)

var tracer = otel.Tracer("lumpiah/tx")

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

// DefaultStatementTimeout applies when a transaction sets no Timeout.
const DefaultStatementTimeout = 30 * time.Second

// SQLSTATE codes treated as transient.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateQueryCanceled        = "57014"
	sqlStateLockNotAvailable     = "55P03"
)

// DefaultTxOptions returns production-safe defaults.
func DefaultTxOptions() tx.Options {
	return tx.Options{
		Isolation: tx.ReadCommitted,
		Timeout:   DefaultStatementTimeout,
	}
}

// TxManager manages database transactions with support for:
// - Nested calls reusing the outer transaction
// - Bounded acquisition (MaxWait) and execution (Timeout)
// - Classification of conflicts and timeouts as transient storage errors
// - Distributed tracing integration
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

// NewTxManagerFromRawPool creates a new transaction manager from raw pgxpool.Pool.
func NewTxManagerFromRawPool(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// txKey is the context key for active transaction.
type txKey struct{}

// RunInTransaction executes fn within a read committed transaction.
// If a transaction already exists in ctx, it is reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// RunInTransactionWithOptions executes fn with custom transaction options.
// Serialization failures, deadlocks and timeouts are returned as TRANSIENT_STORAGE_ERROR.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", opts.Isolation.String()),
			attribute.Bool("tx.read_only", opts.ReadOnly),
		))
	defer span.End()

	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	err := classify(m.startNewTransaction(ctx, opts, fn))
	if err != nil && apperror.IsTransientStorage(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transient storage failure")
	}
	return err
}

func (m *TxManager) startNewTransaction(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	beginCtx := ctx
	if opts.MaxWait > 0 {
		var cancel context.CancelFunc
		beginCtx, cancel = context.WithTimeout(ctx, opts.MaxWait)
		defer cancel()
	}

	pgTx, err := m.pool.BeginTx(beginCtx, toPgxOptions(opts))
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	execCtx := ctx
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	_, err = pgTx.Exec(execCtx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", timeout.Milliseconds()))
	if err != nil {
		_ = pgTx.Rollback(context.Background())
		return fmt.Errorf("set statement_timeout: %w", err)
	}

	txCtx := context.WithValue(execCtx, txKey{}, pgTx)

	if err := fn(txCtx); err != nil {
		// Background context so rollback completes after cancellation.
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := pgTx.Commit(execCtx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toPgxOptions(opts tx.Options) pgx.TxOptions {
	out := pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}
	switch opts.Isolation {
	case tx.RepeatableRead:
		out.IsoLevel = pgx.RepeatableRead
	case tx.Serializable:
		out.IsoLevel = pgx.Serializable
	}
	if opts.ReadOnly {
		out.AccessMode = pgx.ReadOnly
	}
	return out
}

// classify maps conflicts and timeouts to apperror.NewTransientStorage.
// Application errors returned by fn pass through unchanged.
func classify(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	if IsTransient(err) {
		return apperror.NewTransientStorage(err)
	}
	return err
}

// IsTransient reports whether err is a serialization conflict, deadlock,
// lock or statement timeout, or an expired deadline.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected,
			sqlStateQueryCanceled, sqlStateLockNotAvailable:
			return true
		}
	}
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

// GetTx returns the current transaction from context, or nil if none.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both pgx.Tx and the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction in ctx, otherwise the pool.
// This allows repos to work both inside and outside transactions.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t
	}
	return m.pool
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := DefaultTxOptions()
	opts.ReadOnly = true
	return m.RunInTransactionWithOptions(ctx, opts, fn)
}

// Pool returns the underlying pool.
func (m *TxManager) Pool() *pgxpool.Pool {
	return m.pool
}

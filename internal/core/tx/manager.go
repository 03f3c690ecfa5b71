// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, not on a specific database driver.
package tx

import (
	"context"
	"time"
)

// Isolation is the transaction isolation level requested by domain code.
type Isolation int

const (
	ReadCommitted Isolation = iota
	RepeatableRead
	Serializable
)

func (i Isolation) String() string {
	switch i {
	case RepeatableRead:
		return "repeatable read"
	case Serializable:
		return "serializable"
	default:
		return "read committed"
	}
}

// Options configures a single transaction.
type Options struct {
	Isolation Isolation
	ReadOnly  bool

	// MaxWait bounds the time spent acquiring a connection and opening the transaction.
	// Zero means no bound beyond the caller's context.
	MaxWait time.Duration

	// Timeout bounds the execution of the transaction body.
	// Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInTransactionWithOptions is RunInTransaction with explicit isolation and bounds.
	RunInTransactionWithOptions(ctx context.Context, opts Options, fn func(ctx context.Context) error) error
}

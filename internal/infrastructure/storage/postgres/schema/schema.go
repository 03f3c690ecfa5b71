// Package schema holds the DDL for the planning tables.
package schema

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var ddl string

// DDL returns the schema script.
func DDL() string { return ddl }

// Execer runs SQL. Satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Apply creates missing tables and indexes. It is safe to run repeatedly.
func Apply(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

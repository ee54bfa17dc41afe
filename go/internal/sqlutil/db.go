package sqlutil

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database handles repositories run queries against.
// Both *sql.DB and *sql.Tx satisfy it, so a repository can be rebound to a
// transaction for multi-row atomic updates.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

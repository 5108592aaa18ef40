package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the transaction bound to ctx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx begins a transaction on the tenant-bound connection in ctx and
// returns a child context carrying the transaction. The transaction's
// first statement re-asserts the tenant schema with SET LOCAL, so a
// binding can never leak in from a previous user of the pooled
// connection. Callers must finish with Commit or Rollback; rolling back
// after a successful commit is a no-op.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	conn := ConnFromContext(ctx)
	if conn == nil {
		return ctx, nil, fmt.Errorf("no database connection in context")
	}
	tenant := TenantFromContext(ctx)
	if tenant == nil {
		return ctx, nil, fmt.Errorf("no tenant bound to context")
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL search_path TO %s, shared", tenant.Schema)); err != nil {
		_ = tx.Rollback(ctx)
		return ctx, nil, fmt.Errorf("bind transaction to tenant %s: %w", tenant.ID, err)
	}

	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// Runner is the transaction boundary services run their protocols
// through. Production wiring uses RunInTx; tests substitute a
// passthrough.
type Runner func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTx executes fn inside a tenant-bound transaction, committing on
// nil and rolling back on error. Every multi-step protocol in the core
// (admit, transfer completion, discharge, guarded status updates) runs
// through here: nothing is visible to other transactions until fn
// returns nil and the commit lands.
func RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := WithTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(txCtx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

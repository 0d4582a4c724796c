package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// ContextWithTx returns a context carrying an open transaction. Repositories
// route their statements through it when present.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// TxFromContext retrieves the transaction from context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// Transactor runs a function inside a database transaction. Services depend
// on this interface so tests can substitute a pass-through implementation.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgxTransactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Transactor backed by the given pool.
func NewTransactor(pool *pgxpool.Pool) Transactor {
	return &pgxTransactor{pool: pool}
}

// WithTx begins a transaction, places it in the context passed to fn, and
// commits when fn returns nil. Any error rolls everything back. If the
// context already carries a transaction, fn joins it: nested calls never
// open a second transaction, so a multi-entity operation stays atomic.
func (t *pgxTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

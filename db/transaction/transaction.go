// Package transaction carries an open sqlx transaction through a context
package transaction

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Queryable is satisfied by both *sqlx.DB and *sqlx.Tx
type Queryable interface {
	sqlx.ExtContext
	GetContext(context.Context, interface{}, string, ...interface{}) error
	SelectContext(context.Context, interface{}, string, ...interface{}) error
}

type txContextKey struct{}

func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func FromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx)
	return tx, ok
}

// Executor returns the transaction carried by ctx, or db outside of one
func Executor(ctx context.Context, db *sqlx.DB) Queryable {
	if tx, ok := FromContext(ctx); ok {
		return tx
	}
	return db
}

// Unsafe is Executor with unmapped result columns ignored
func Unsafe(ctx context.Context, db *sqlx.DB) Queryable {
	if tx, ok := FromContext(ctx); ok {
		return tx.Unsafe()
	}
	return db.Unsafe()
}

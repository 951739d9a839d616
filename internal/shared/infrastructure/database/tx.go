package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback when ctx carries no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// txScope is what a unit of work leaves in the context. Only the scope that
// opened tx may finish it.
type txScope struct {
	tx    Transaction
	owner bool
}

func scopeFrom(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// TxFromContext returns the transaction a unit of work opened for ctx.
func TxFromContext(ctx context.Context) (Transaction, bool) {
	scope, ok := scopeFrom(ctx)
	return scope.tx, ok
}

// ExecutorFromContext returns the transaction carried by ctx, or conn.
func ExecutorFromContext(ctx context.Context, conn Executor) Executor {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return conn
}

// UnitOfWork opens one transaction per outermost Begin. A Begin on a context
// that already holds a transaction joins it, and the matching Commit or
// Rollback leaves it for the outer scope to finish.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work bound to conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts or joins a transaction.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, txScope{tx: outer.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owner: true}), nil
}

// Commit commits when ctx's scope opened the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return finish(ctx, Transaction.Commit)
}

// Rollback rolls back when ctx's scope opened the transaction.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return finish(ctx, Transaction.Rollback)
}

func finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	scope, ok := scopeFrom(ctx)
	switch {
	case !ok:
		return ErrNoTransaction
	case !scope.owner:
		return nil
	default:
		return end(scope.tx, ctx)
	}
}

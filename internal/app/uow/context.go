package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// Acquire returns the ambient unit of work or begins a new one through the
// factory. The returned release func rolls back units this call created.
func Acquire(ctx context.Context, factory UoWFactory, opts TxOptions) (context.Context, UnitOfWork, func(), bool, error) {
	if unit, ok := FromContext(ctx); ok {
		return ctx, unit, func() {}, false, nil
	}
	if factory == nil {
		return ctx, nil, nil, false, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return ctx, nil, nil, false, err
	}
	ctx = ContextWithUnitOfWork(ctx, unit)
	release := func() { _ = unit.Rollback(ctx) }
	return ctx, unit, release, true, nil
}

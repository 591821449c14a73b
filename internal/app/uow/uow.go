package uow

import (
	"context"

	domainbooking "peppertree/internal/domain/booking"
	domainrates "peppertree/internal/domain/rates"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Rates() domainrates.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

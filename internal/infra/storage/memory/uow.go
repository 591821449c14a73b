package memory

import (
	"context"
	"errors"

	"peppertree/internal/app/uow"
	domainbooking "peppertree/internal/domain/booking"
	domainrates "peppertree/internal/domain/rates"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo domainbooking.Repository
	RateRepo    domainrates.Repository
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; repository locks keep
// individual writes safe.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.RateRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{bookings: f.BookingRepo, rates: f.RateRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	bookings domainbooking.Repository
	rates    domainrates.Repository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Rates() domainrates.Repository {
	return u.rates
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}

package booking

import (
	"context"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	domainbooking "peppertree/internal/domain/booking"
)

const (
	listBookingsKey = "booking.list"
	getBookingKey   = "booking.get"
)

type ListBookingsQuery struct {
	Status string
	Source string
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer release()

	items, err := unit.Bookings().List(ctx)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	filtered := items[:0:0]
	for _, b := range items {
		if q.Status != "" && string(b.Status) != q.Status {
			continue
		}
		if q.Source != "" && string(b.Source) != q.Source {
			continue
		}
		filtered = append(filtered, b)
	}
	return dto.BookingCollectionFromDomain(filtered), nil
}

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingSummary, error) {
	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BookingSummary{}, err
	}
	defer release()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingSummary{}, err
	}
	return dto.BookingFromDomain(b), nil
}

var _ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
var _ queries.Handler[GetBookingQuery, dto.BookingSummary] = (*GetBookingHandler)(nil)

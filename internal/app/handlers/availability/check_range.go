package availability

import (
	"context"
	"time"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	domainavail "peppertree/internal/domain/availability"
	domainrange "peppertree/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityCheck, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.AvailabilityCheck{}, err
	}

	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.AvailabilityCheck{}, err
	}
	defer release()

	engine := domainavail.Engine{Bookings: unit.Bookings()}
	free, conflicts, err := engine.IsAvailable(ctx, dr)
	if err != nil {
		return dto.AvailabilityCheck{}, err
	}

	return dto.AvailabilityCheck{
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Available: free,
		Conflicts: dto.ConflictsFromDomain(conflicts),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityCheck] = (*CheckAvailabilityHandler)(nil)

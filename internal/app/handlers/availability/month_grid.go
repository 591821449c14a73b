package availability

import (
	"context"
	"errors"
	"time"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	domainavail "peppertree/internal/domain/availability"
)

const monthAvailabilityKey = "availability.month"

var ErrInvalidMonth = errors.New("availability: month must be between 1 and 12")

type MonthAvailabilityQuery struct {
	Year  int
	Month int
}

func (q MonthAvailabilityQuery) Key() string { return monthAvailabilityKey }

// MonthAvailabilityHandler renders the calendar grid data the public site
// shows: every blocked day of one month.
type MonthAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MonthAvailabilityHandler) Handle(ctx context.Context, q MonthAvailabilityQuery) (dto.MonthAvailability, error) {
	if q.Month < 1 || q.Month > 12 {
		return dto.MonthAvailability{}, ErrInvalidMonth
	}

	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.MonthAvailability{}, err
	}
	defer release()

	engine := domainavail.Engine{Bookings: unit.Bookings()}
	blocked, err := engine.BlockedDates(ctx, q.Year, time.Month(q.Month))
	if err != nil {
		return dto.MonthAvailability{}, err
	}

	out := dto.MonthAvailability{
		Year:         q.Year,
		Month:        q.Month,
		BlockedDates: make([]string, 0, len(blocked)),
	}
	for _, d := range blocked {
		out.BlockedDates = append(out.BlockedDates, d.Format("2006-01-02"))
	}
	return out, nil
}

var _ queries.Handler[MonthAvailabilityQuery, dto.MonthAvailability] = (*MonthAvailabilityHandler)(nil)

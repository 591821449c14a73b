package availability

import (
	"context"
	"time"

	"peppertree/internal/domain/booking"
	"peppertree/internal/domain/shared/daterange"
)

// Check is the core availability decision: a candidate range is bookable
// iff it intersects no blocking booking. The conflicting bookings are
// returned for admin diagnostics even when the answer is false. Pure
// function over the provided snapshot; the caller validates the range.
func Check(blocking []*booking.Booking, dr daterange.DateRange) (bool, []*booking.Booking) {
	var conflicts []*booking.Booking
	for _, b := range blocking {
		if b.Blocking() && b.Range.Overlaps(dr) {
			conflicts = append(conflicts, b)
		}
	}
	return len(conflicts) == 0, conflicts
}

// Engine answers availability questions against the booking store.
type Engine struct {
	Bookings booking.Repository
}

func (e Engine) IsAvailable(ctx context.Context, dr daterange.DateRange) (bool, []*booking.Booking, error) {
	blocking, err := e.Bookings.FindBlocking(ctx, dr)
	if err != nil {
		return false, nil, err
	}
	ok, conflicts := Check(blocking, dr)
	return ok, conflicts, nil
}

// BlockedDates returns every blocked calendar day of the given month, for
// rendering the availability grid.
func (e Engine) BlockedDates(ctx context.Context, year int, month time.Month) ([]time.Time, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	span := daterange.DateRange{CheckIn: first, CheckOut: next}

	blocking, err := e.Bookings.FindBlocking(ctx, span)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]struct{})
	for _, b := range blocking {
		if !b.Blocking() {
			continue
		}
		for d := maxDay(b.Range.CheckIn, first); d.Before(minDay(b.Range.CheckOut, next)); d = d.AddDate(0, 0, 1) {
			seen[d] = struct{}{}
		}
	}

	blocked := make([]time.Time, 0, len(seen))
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if _, ok := seen[d]; ok {
			blocked = append(blocked, d)
		}
	}
	return blocked, nil
}

func maxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

// DateRange represents a half-open stay interval [checkIn, checkOut).
// Both bounds are calendar dates; any time-of-day component is truncated.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open intervals intersect. Back-to-back
// stays (one checkout equal to the next checkin) do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// EachNight returns one entry per occupied night, checkout excluded.
func (dr DateRange) EachNight() []time.Time {
	nights := make([]time.Time, 0, dr.Nights())
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.CheckIn.Equal(other.CheckIn) && dr.CheckOut.Equal(other.CheckOut)
}

package booking

import (
	"time"

	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID   BookingID
	Range       daterange.DateRange
	Guests      int
	QuotedTotal money.Money
	At          time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID BookingID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingImported struct {
	BookingID   BookingID
	Platform    string
	ExternalUID string
	Range       daterange.DateRange
	At          time.Time
}

func (e BookingImported) EventName() string     { return "booking.imported" }
func (e BookingImported) AggregateID() string   { return string(e.BookingID) }
func (e BookingImported) OccurredAt() time.Time { return e.At }

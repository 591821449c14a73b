package calsync

import (
	"sort"

	ical "github.com/arran4/golang-ical"

	"peppertree/internal/domain/booking"
)

const (
	prodID       = "-//17 @ Peppertree//Booking Calendar//EN"
	calName      = "17 @ Peppertree Bookings"
	calTimezone  = "Africa/Johannesburg"
	calDesc      = "Confirmed bookings for 17 @ Peppertree"
	uidDomain    = "17peppertree.co.za"
	eventSummary = "Reserved"
)

// CalendarName returns the display name published with the feed.
func CalendarName() string { return calName }

// CalendarTimezone returns the property timezone published with the feed.
func CalendarTimezone() string { return calTimezone }

// FeedUID derives the stable VEVENT UID for a booking.
func FeedUID(id booking.BookingID) string {
	return "booking-" + string(id) + "@" + uidDomain
}

// BuildFeed renders the export feed for the given bookings. Output is
// deterministic for unchanged input: events are ordered by check-in then
// id, field order is fixed, and DTSTAMP comes from the booking's update
// time rather than the wall clock, so polling consumers can diff cheaply.
// The summary is a generic label; guest details stay out of the feed.
func BuildFeed(bookings []*booking.Booking) []byte {
	sorted := make([]*booking.Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Range.CheckIn.Equal(sorted[j].Range.CheckIn) {
			return sorted[i].Range.CheckIn.Before(sorted[j].Range.CheckIn)
		}
		return sorted[i].ID < sorted[j].ID
	})

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(calName)
	cal.SetXWRTimezone(calTimezone)
	cal.SetXWRCalDesc(calDesc)

	for _, b := range sorted {
		ev := cal.AddEvent(FeedUID(b.ID))
		ev.SetDtStampTime(b.UpdatedAt.UTC())
		ev.SetAllDayStartAt(b.Range.CheckIn)
		ev.SetAllDayEndAt(b.Range.CheckOut)
		ev.SetSummary(eventSummary)
		ev.SetStatus(ical.ObjectStatusConfirmed)
	}

	return []byte(cal.Serialize())
}

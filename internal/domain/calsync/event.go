package calsync

import (
	"errors"
	"time"

	"peppertree/internal/domain/shared/daterange"
)

var (
	// ErrMalformedFeed means the document itself could not be parsed as
	// iCal. Individual broken events inside a valid document are skipped
	// and counted instead.
	ErrMalformedFeed = errors.New("calsync: feed is not a valid iCal document")
)

// Event is the normalized form of one imported VEVENT: an all-day stay
// range plus the feed's own identity fields. Times are calendar dates.
type Event struct {
	UID     string
	Range   daterange.DateRange
	Summary string
}

// eventError carries a per-item parse failure so a single broken VEVENT
// never aborts the feed.
type eventError struct {
	uid    string
	reason string
}

func (e eventError) Error() string {
	if e.uid == "" {
		return "calsync: malformed event: " + e.reason
	}
	return "calsync: malformed event " + e.uid + ": " + e.reason
}

func newEventError(uid, reason string) error {
	return eventError{uid: uid, reason: reason}
}

func toDay(t time.Time) time.Time {
	return daterange.Day(t)
}

package calsync

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"peppertree/internal/domain/shared/daterange"
)

// ParseFeed parses an iCal payload into normalized events. Malformed
// individual events are skipped and returned as per-item errors; only an
// unparseable document fails the whole feed.
func ParseFeed(body []byte) ([]Event, []error, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, ErrMalformedFeed
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, ErrMalformedFeed
	}

	events := make([]Event, 0, len(cal.Events()))
	var skipped []error
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			skipped = append(skipped, perr)
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return Event{}, newEventError("", "missing UID")
	}
	uid := strings.TrimSpace(uidProp.Value)

	start, err := propertyDate(ve, ical.ComponentPropertyDtStart)
	if err != nil {
		return Event{}, newEventError(uid, "missing or invalid DTSTART")
	}

	end, err := propertyDate(ve, ical.ComponentPropertyDtEnd)
	if err != nil {
		// DTSTART+DURATION is an accepted alternative to DTEND.
		d, derr := propertyDuration(ve)
		if derr != nil {
			return Event{}, newEventError(uid, "missing or invalid DTEND")
		}
		end = toDay(start.Add(d))
	}

	dr, err := daterange.New(start, end)
	if err != nil {
		return Event{}, newEventError(uid, "DTEND does not follow DTSTART")
	}

	summary := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}

	return Event{UID: uid, Range: dr, Summary: summary}, nil
}

// propertyDate extracts a DATE or DATE-TIME property and truncates it to a
// calendar day. Feeds from booking platforms use all-day values, but
// timestamped variants appear in the wild and are tolerated.
func propertyDate(ve *ical.VEvent, name ical.ComponentProperty) (time.Time, error) {
	prop := ve.GetProperty(name)
	if prop == nil {
		return time.Time{}, newEventError("", "property missing")
	}
	t, err := parseICalTime(prop.Value)
	if err != nil {
		return time.Time{}, err
	}
	return toDay(t), nil
}

func parseICalTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, newEventError("", "empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.Parse("20060102T150405", v)
	default:
		return time.Parse("20060102", v)
	}
}

func propertyDuration(ve *ical.VEvent) (time.Duration, error) {
	prop := ve.GetProperty(ical.ComponentProperty("DURATION"))
	if prop == nil {
		return 0, newEventError("", "no DURATION")
	}
	return parseISODuration(prop.Value)
}

// parseISODuration handles the subset of RFC 5545 durations booking feeds
// emit: PnW, PnD and the time components of PTnHnMnS.
func parseISODuration(v string) (time.Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if !strings.HasPrefix(s, "P") {
		return 0, newEventError("", "invalid DURATION")
	}
	s = strings.TrimPrefix(s, "P")

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, newEventError("", "invalid DURATION")
			}
			num = ""
			switch {
			case r == 'W':
				total += time.Duration(n) * 7 * 24 * time.Hour
			case r == 'D':
				total += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				total += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				total += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				total += time.Duration(n) * time.Second
			default:
				return 0, newEventError("", "invalid DURATION")
			}
		}
	}
	if num != "" || total <= 0 {
		return 0, newEventError("", "invalid DURATION")
	}
	return total, nil
}

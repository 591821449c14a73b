package calsync

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func feed(events ...string) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n")
	for _, ev := range events {
		b.WriteString(ev)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return []byte(b.String())
}

func vevent(lines ...string) string {
	return "BEGIN:VEVENT\r\n" + strings.Join(lines, "\r\n") + "\r\nEND:VEVENT\r\n"
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFeedAllDayEvents(t *testing.T) {
	body := feed(
		vevent("UID:evt-1@airbnb.com", "DTSTART;VALUE=DATE:20250801", "DTEND;VALUE=DATE:20250804", "SUMMARY:Reserved"),
		vevent("UID:evt-2@airbnb.com", "DTSTART;VALUE=DATE:20250810", "DTEND;VALUE=DATE:20250812"),
	)
	events, skipped, err := ParseFeed(body)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v", skipped)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].UID != "evt-1@airbnb.com" {
		t.Fatalf("uid = %q", events[0].UID)
	}
	if !events[0].Range.CheckIn.Equal(date(2025, 8, 1)) || !events[0].Range.CheckOut.Equal(date(2025, 8, 4)) {
		t.Fatalf("range = %v", events[0].Range)
	}
	if events[0].Summary != "Reserved" {
		t.Fatalf("summary = %q", events[0].Summary)
	}
}

func TestParseFeedTruncatesTimestampedEvents(t *testing.T) {
	body := feed(
		vevent("UID:evt-1@booking.com", "DTSTART:20250801T140000Z", "DTEND:20250804T100000Z"),
	)
	events, skipped, err := ParseFeed(body)
	if err != nil || len(skipped) != 0 {
		t.Fatalf("ParseFeed: %v, skipped %v", err, skipped)
	}
	if !events[0].Range.CheckIn.Equal(date(2025, 8, 1)) || !events[0].Range.CheckOut.Equal(date(2025, 8, 4)) {
		t.Fatalf("range = %v", events[0].Range)
	}
}

func TestParseFeedDurationFallback(t *testing.T) {
	body := feed(
		vevent("UID:evt-1@example.com", "DTSTART;VALUE=DATE:20250801", "DURATION:P3D"),
	)
	events, skipped, err := ParseFeed(body)
	if err != nil || len(skipped) != 0 {
		t.Fatalf("ParseFeed: %v, skipped %v", err, skipped)
	}
	if !events[0].Range.CheckOut.Equal(date(2025, 8, 4)) {
		t.Fatalf("checkout = %v, want 2025-08-04", events[0].Range.CheckOut)
	}
}

func TestParseFeedSkipsBrokenEventsAndKeepsRest(t *testing.T) {
	body := feed(
		vevent("DTSTART;VALUE=DATE:20250801", "DTEND;VALUE=DATE:20250804"),                          // no UID
		vevent("UID:no-start@x", "DTEND;VALUE=DATE:20250804"),                                       // no DTSTART
		vevent("UID:no-end@x", "DTSTART;VALUE=DATE:20250801"),                                       // no DTEND or DURATION
		vevent("UID:inverted@x", "DTSTART;VALUE=DATE:20250804", "DTEND;VALUE=DATE:20250801"),        // inverted
		vevent("UID:good@x", "DTSTART;VALUE=DATE:20250810", "DTEND;VALUE=DATE:20250812"),            // fine
	)
	events, skipped, err := ParseFeed(body)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(events) != 1 || events[0].UID != "good@x" {
		t.Fatalf("events = %v", events)
	}
	if len(skipped) != 4 {
		t.Fatalf("skipped = %d, want 4: %v", len(skipped), skipped)
	}
}

func TestParseFeedRejectsNonICalDocument(t *testing.T) {
	for _, body := range [][]byte{nil, []byte("   "), []byte("<html>not a calendar</html>")} {
		if _, _, err := ParseFeed(body); !errors.Is(err, ErrMalformedFeed) {
			t.Fatalf("body %q: want ErrMalformedFeed, got %v", body, err)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"P3D", 72 * time.Hour, true},
		{"P1W", 7 * 24 * time.Hour, true},
		{"PT12H", 12 * time.Hour, true},
		{"P1DT12H", 36 * time.Hour, true},
		{"3D", 0, false},
		{"P", 0, false},
	}
	for _, tc := range cases {
		got, err := parseISODuration(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

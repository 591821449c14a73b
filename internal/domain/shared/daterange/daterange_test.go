package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, in, out time.Time) DateRange {
	t.Helper()
	dr, err := New(in, out)
	if err != nil {
		t.Fatalf("New(%v, %v): %v", in, out, err)
	}
	return dr
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	cases := []struct {
		name     string
		in, out  time.Time
	}{
		{"same day", date(2025, 7, 1), date(2025, 7, 1)},
		{"inverted", date(2025, 7, 5), date(2025, 7, 1)},
		{"zero check-in", time.Time{}, date(2025, 7, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.in, tc.out); !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("want ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestNewTruncatesToCalendarDays(t *testing.T) {
	in := time.Date(2025, 7, 1, 14, 30, 0, 0, time.UTC)
	out := time.Date(2025, 7, 3, 9, 0, 0, 0, time.UTC)
	dr := mustRange(t, in, out)
	if !dr.CheckIn.Equal(date(2025, 7, 1)) || !dr.CheckOut.Equal(date(2025, 7, 3)) {
		t.Fatalf("not truncated: %v", dr)
	}
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, date(2025, 7, 1), date(2025, 7, 5))
	cases := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"partial overlap", mustRange(t, date(2025, 7, 3), date(2025, 7, 6)), true},
		{"contained", mustRange(t, date(2025, 7, 2), date(2025, 7, 4)), true},
		{"containing", mustRange(t, date(2025, 6, 30), date(2025, 7, 10)), true},
		{"identical", mustRange(t, date(2025, 7, 1), date(2025, 7, 5)), true},
		{"adjacent after", mustRange(t, date(2025, 7, 5), date(2025, 7, 8)), false},
		{"adjacent before", mustRange(t, date(2025, 6, 28), date(2025, 7, 1)), false},
		{"disjoint", mustRange(t, date(2025, 8, 1), date(2025, 8, 3)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Fatalf("Overlaps not symmetric: %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBackToBackStaysDoNotConflict(t *testing.T) {
	first := mustRange(t, date(2025, 6, 10), date(2025, 6, 12))
	second := mustRange(t, date(2025, 6, 12), date(2025, 6, 14))
	if first.Overlaps(second) {
		t.Fatal("checkout day must be bookable as the next check-in")
	}
	if !first.Adjacent(second) {
		t.Fatal("expected ranges to be adjacent")
	}
}

func TestNightsAndEachNight(t *testing.T) {
	dr := mustRange(t, date(2025, 7, 1), date(2025, 7, 5))
	if got := dr.Nights(); got != 4 {
		t.Fatalf("Nights = %d, want 4", got)
	}
	nights := dr.EachNight()
	if len(nights) != 4 {
		t.Fatalf("EachNight len = %d, want 4", len(nights))
	}
	if !nights[0].Equal(date(2025, 7, 1)) || !nights[3].Equal(date(2025, 7, 4)) {
		t.Fatalf("EachNight bounds wrong: %v", nights)
	}
}

func TestContainsDate(t *testing.T) {
	dr := mustRange(t, date(2025, 7, 1), date(2025, 7, 5))
	if !dr.ContainsDate(date(2025, 7, 1)) {
		t.Fatal("check-in day must be contained")
	}
	if dr.ContainsDate(date(2025, 7, 5)) {
		t.Fatal("checkout day must not be contained")
	}
}

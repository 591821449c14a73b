package rates

import (
	"errors"
	"testing"
	"time"

	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(t *testing.T, in, out time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(in, out)
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	return dr
}

func baseRule(id string, guests int, amount int64, createdAt time.Time) RateRule {
	return RateRule{
		ID:        RuleID(id),
		Type:      TypeBase,
		Guests:    guests,
		Amount:    money.ZAR(amount),
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func specialRule(id string, guests int, amount int64, start, end, createdAt time.Time) RateRule {
	return RateRule{
		ID:        RuleID(id),
		Type:      TypeSpecial,
		Guests:    guests,
		Amount:    money.ZAR(amount),
		Window:    &Window{Start: start, End: end},
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func mustTable(t *testing.T, rules ...RateRule) Table {
	t.Helper()
	table, err := NewTable(rules)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestNewTableRejectsTwoActiveBaseRatesPerGuestCount(t *testing.T) {
	_, err := NewTable([]RateRule{
		baseRule("b1", 2, 95000, date(2025, 1, 1)),
		baseRule("b2", 2, 90000, date(2025, 2, 1)),
	})
	if !errors.Is(err, ErrDuplicateBaseRate) {
		t.Fatalf("want ErrDuplicateBaseRate, got %v", err)
	}

	// Different guest counts coexist.
	mustTable(t,
		baseRule("b1", 1, 85000, date(2025, 1, 1)),
		baseRule("b2", 2, 95000, date(2025, 1, 1)),
	)
}

func TestRuleValidation(t *testing.T) {
	bad := baseRule("b1", 2, 95000, date(2025, 1, 1))
	bad.Window = &Window{Start: date(2025, 1, 1), End: date(2025, 2, 1)}
	if err := bad.Validate(); !errors.Is(err, ErrWindowForbidden) {
		t.Fatalf("base with window: want ErrWindowForbidden, got %v", err)
	}

	windowless := RateRule{ID: "s1", Type: TypeSpecial, Guests: 2, Amount: money.ZAR(80000), Active: true}
	if err := windowless.Validate(); !errors.Is(err, ErrWindowRequired) {
		t.Fatalf("special without window: want ErrWindowRequired, got %v", err)
	}

	inverted := specialRule("s2", 2, 80000, date(2025, 2, 1), date(2025, 1, 1), date(2025, 1, 1))
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("inverted window: want ErrInvalidWindow, got %v", err)
	}
}

func TestQuoteSpecialOverridesBasePerNight(t *testing.T) {
	table := mustTable(t,
		baseRule("base2", 2, 95000, date(2025, 1, 1)),
		specialRule("festive", 2, 80000, date(2025, 12, 20), date(2026, 1, 10), date(2025, 11, 1)),
	)

	nights, total, err := table.Quote(stay(t, date(2025, 12, 18), date(2025, 12, 22)), 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if len(nights) != 4 {
		t.Fatalf("nights = %d, want 4", len(nights))
	}
	wantAmounts := []int64{95000, 95000, 80000, 80000}
	for i, want := range wantAmounts {
		if nights[i].Amount.Amount != want {
			t.Fatalf("night %d = %d, want %d", i, nights[i].Amount.Amount, want)
		}
	}
	if nights[2].RuleID != "festive" || nights[2].RuleType != TypeSpecial {
		t.Fatalf("night 2 priced by %s (%s)", nights[2].RuleID, nights[2].RuleType)
	}
	if total.Amount != 350000 {
		t.Fatalf("total = %d, want 350000", total.Amount)
	}
}

func TestQuoteWindowBoundsAreInclusive(t *testing.T) {
	table := mustTable(t,
		baseRule("base2", 2, 95000, date(2025, 1, 1)),
		specialRule("week", 2, 70000, date(2025, 3, 10), date(2025, 3, 12), date(2025, 2, 1)),
	)

	// Nights 9..13: the special covers 10, 11 and 12 inclusive.
	nights, _, err := table.Quote(stay(t, date(2025, 3, 9), date(2025, 3, 14)), 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	wantSpecial := []bool{false, true, true, true, false}
	for i, want := range wantSpecial {
		got := nights[i].RuleType == TypeSpecial
		if got != want {
			t.Fatalf("night %v special = %v, want %v", nights[i].Date, got, want)
		}
	}
}

func TestQuoteTieBreakLowestThenNewest(t *testing.T) {
	cheap := specialRule("cheap", 2, 70000, date(2025, 5, 1), date(2025, 5, 31), date(2025, 1, 1))
	pricey := specialRule("pricey", 2, 90000, date(2025, 5, 1), date(2025, 5, 31), date(2025, 4, 1))
	table := mustTable(t, baseRule("base2", 2, 95000, date(2025, 1, 1)), cheap, pricey)

	nights, _, err := table.Quote(stay(t, date(2025, 5, 10), date(2025, 5, 11)), 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if nights[0].RuleID != "cheap" {
		t.Fatalf("lowest amount must win, got %s", nights[0].RuleID)
	}

	// Equal amounts: the newer rule wins.
	newer := specialRule("newer", 2, 70000, date(2025, 5, 1), date(2025, 5, 31), date(2025, 3, 1))
	table = mustTable(t, baseRule("base2", 2, 95000, date(2025, 1, 1)), cheap, newer)
	nights, _, err = table.Quote(stay(t, date(2025, 5, 10), date(2025, 5, 11)), 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if nights[0].RuleID != "newer" {
		t.Fatalf("newest rule must break the tie, got %s", nights[0].RuleID)
	}
}

func TestQuoteGuestCountsResolveIndependently(t *testing.T) {
	table := mustTable(t,
		baseRule("base1", 1, 85000, date(2025, 1, 1)),
		baseRule("base2", 2, 95000, date(2025, 1, 1)),
		specialRule("solo", 1, 60000, date(2025, 5, 1), date(2025, 5, 31), date(2025, 2, 1)),
	)

	dr := stay(t, date(2025, 5, 10), date(2025, 5, 11))
	soloNights, _, err := table.Quote(dr, 1)
	if err != nil {
		t.Fatalf("Quote guests=1: %v", err)
	}
	if soloNights[0].Amount.Amount != 60000 {
		t.Fatalf("solo night = %d, want 60000", soloNights[0].Amount.Amount)
	}
	pairNights, _, err := table.Quote(dr, 2)
	if err != nil {
		t.Fatalf("Quote guests=2: %v", err)
	}
	if pairNights[0].Amount.Amount != 95000 {
		t.Fatalf("pair night = %d, want base 95000", pairNights[0].Amount.Amount)
	}
}

func TestQuoteFailsWithoutBaseRate(t *testing.T) {
	table := mustTable(t, baseRule("base1", 1, 85000, date(2025, 1, 1)))
	if _, _, err := table.Quote(stay(t, date(2025, 5, 10), date(2025, 5, 12)), 2); !errors.Is(err, ErrNoBaseRate) {
		t.Fatalf("want ErrNoBaseRate, got %v", err)
	}
	if _, _, err := table.Quote(stay(t, date(2025, 5, 10), date(2025, 5, 12)), 5); !errors.Is(err, ErrInvalidGuests) {
		t.Fatalf("want ErrInvalidGuests, got %v", err)
	}
}

func TestInactiveRulesAreIgnored(t *testing.T) {
	retired := specialRule("retired", 2, 10000, date(2025, 5, 1), date(2025, 5, 31), date(2025, 1, 1))
	retired.Active = false
	table := mustTable(t, baseRule("base2", 2, 95000, date(2025, 1, 1)), retired)

	nights, _, err := table.Quote(stay(t, date(2025, 5, 10), date(2025, 5, 11)), 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if nights[0].Amount.Amount != 95000 {
		t.Fatalf("inactive special applied: %d", nights[0].Amount.Amount)
	}
}

package booking

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

func pendingBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewRequest(RequestParams{
		ID:          "b-1",
		Range:       stay(t, date(2025, 7, 1), date(2025, 7, 5)),
		Guests:      2,
		GuestName:   "Thandi M",
		GuestEmail:  "thandi@example.com",
		QuotedTotal: money.ZAR(380000),
		CreatedAt:   date(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return b
}

func TestNewRequestValidation(t *testing.T) {
	base := RequestParams{
		ID:        "b-1",
		Range:     stay(t, date(2025, 7, 1), date(2025, 7, 5)),
		Guests:    2,
		GuestName: "Thandi M",
	}

	tooMany := base
	tooMany.Guests = 3
	if _, err := NewRequest(tooMany); !errors.Is(err, ErrInvalidGuests) {
		t.Fatalf("guests=3: want ErrInvalidGuests, got %v", err)
	}

	zero := base
	zero.Guests = 0
	if _, err := NewRequest(zero); !errors.Is(err, ErrInvalidGuests) {
		t.Fatalf("guests=0: want ErrInvalidGuests, got %v", err)
	}

	unnamed := base
	unnamed.GuestName = "   "
	if _, err := NewRequest(unnamed); !errors.Is(err, ErrGuestNameMissing) {
		t.Fatalf("want ErrGuestNameMissing, got %v", err)
	}
}

func TestNewRequestStartsPendingAndRecordsEvent(t *testing.T) {
	b := pendingBooking(t)
	if b.Status != StatusPending {
		t.Fatalf("status = %s, want pending", b.Status)
	}
	if b.Source != SourceLocal {
		t.Fatalf("source = %s, want local", b.Source)
	}
	if b.Blocking() {
		t.Fatal("pending booking must not block availability")
	}
	events := b.PendingEvents()
	if len(events) != 1 || events[0].EventName() != "booking.requested" {
		t.Fatalf("events = %v", events)
	}
}

func TestApprovalMakesBookingBlocking(t *testing.T) {
	b := pendingBooking(t)
	if err := b.Approve(date(2025, 6, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !b.Blocking() {
		t.Fatal("approved booking must block")
	}
	if err := b.Approve(date(2025, 6, 3)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double approve: want ErrInvalidState, got %v", err)
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	b := pendingBooking(t)
	if err := b.Reject("no availability", date(2025, 6, 2)); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if b.Status != StatusRejected || b.Blocking() {
		t.Fatalf("rejected booking in wrong state: %s", b.Status)
	}
	if err := b.Cancel("", date(2025, 6, 3)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel after reject: want ErrInvalidState, got %v", err)
	}
}

func TestCancelReleasesDates(t *testing.T) {
	b := pendingBooking(t)
	if err := b.Approve(date(2025, 6, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := b.Cancel("guest request", date(2025, 6, 10)); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if b.Blocking() {
		t.Fatal("cancelled booking must not block")
	}
	if b.AdminNotes != "guest request" {
		t.Fatalf("admin notes = %q", b.AdminNotes)
	}
}

func TestCompleteRequiresCheckoutPassed(t *testing.T) {
	b := pendingBooking(t)
	if err := b.Approve(date(2025, 6, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := b.Complete(date(2025, 7, 3)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete mid-stay: want ErrInvalidState, got %v", err)
	}
	if err := b.Complete(date(2025, 7, 5)); err != nil {
		t.Fatalf("Complete on checkout day: %v", err)
	}
	if b.Status != StatusCompleted {
		t.Fatalf("status = %s", b.Status)
	}
}

func TestSoftDeleteStopsBlocking(t *testing.T) {
	b := pendingBooking(t)
	if err := b.Approve(date(2025, 6, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	b.SoftDelete("admin", date(2025, 6, 15))
	if b.Blocking() {
		t.Fatal("deleted booking must not block")
	}
	if b.DeletedAt == nil || b.DeletedBy != "admin" {
		t.Fatalf("delete stamp missing: %+v", b)
	}
}

func TestNewImportedIsApprovedAndBlocking(t *testing.T) {
	b, err := NewImported(ImportParams{
		ID:          "b-2",
		Range:       stay(t, date(2025, 8, 1), date(2025, 8, 4)),
		Platform:    "Airbnb",
		ExternalUID: "evt-1@airbnb.com",
		CreatedAt:   date(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("NewImported: %v", err)
	}
	if !b.Blocking() {
		t.Fatal("imported booking must block immediately")
	}
	if !b.Source.Imported() || b.Source.Platform() != "airbnb" {
		t.Fatalf("source = %s", b.Source)
	}
	if b.Source != ImportedSource("airbnb") {
		t.Fatalf("source = %s", b.Source)
	}
}

func TestValidateNotPast(t *testing.T) {
	now := time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)
	past := stay(t, date(2025, 7, 1), date(2025, 7, 5))
	if err := ValidateNotPast(past, now); !errors.Is(err, ErrCheckInInPast) {
		t.Fatalf("want ErrCheckInInPast, got %v", err)
	}
	// Check-in today is allowed regardless of time of day.
	today := stay(t, date(2025, 7, 10), date(2025, 7, 12))
	if err := ValidateNotPast(today, now); err != nil {
		t.Fatalf("same-day check-in rejected: %v", err)
	}
}

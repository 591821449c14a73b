package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "peppertree/internal/domain/booking"
	domainrates "peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/money"
	"peppertree/internal/infra/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type bookingFixture struct {
	request *RequestBookingHandler
	decide  *DecideBookingHandler
	repo    *memory.BookingRepository
	rates   *memory.RateRepository
	outbox  *memory.Outbox
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	repo := memory.NewBookingRepository()
	rateRepo := memory.NewRateRepository()
	box := memory.NewOutbox(nil)
	factory := memory.Factory{BookingRepo: repo, RateRepo: rateRepo}
	now := func() time.Time { return date(2025, 6, 1) }

	seedRate := domainrates.RateRule{
		ID:        "base2",
		Type:      domainrates.TypeBase,
		Guests:    2,
		Amount:    money.ZAR(95000),
		Active:    true,
		CreatedAt: date(2025, 1, 1),
		UpdatedAt: date(2025, 1, 1),
	}
	if err := rateRepo.Save(context.Background(), seedRate); err != nil {
		t.Fatalf("seed rate: %v", err)
	}

	return &bookingFixture{
		request: &RequestBookingHandler{UoWFactory: factory, Outbox: box, Now: now},
		decide:  &DecideBookingHandler{UoWFactory: factory, Outbox: box, Now: now},
		repo:    repo,
		rates:   rateRepo,
		outbox:  box,
	}
}

func requestCmd(id string, in, out time.Time) RequestBookingCommand {
	return RequestBookingCommand{
		CommandID: id,
		CheckIn:   in,
		CheckOut:  out,
		Guests:    2,
		GuestName: "Thandi M",
	}
}

func TestRequestBookingLocksQuotedTotal(t *testing.T) {
	fx := newBookingFixture(t)

	res, err := fx.request.Handle(context.Background(), requestCmd("b-1", date(2025, 7, 1), date(2025, 7, 5)))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Total != 4*95000 || res.Currency != money.DefaultCurrency {
		t.Fatalf("result = %+v", res)
	}

	stored, err := fx.repo.ByID(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != domainbooking.StatusPending {
		t.Fatalf("status = %s", stored.Status)
	}
	if stored.QuotedTotal.Amount != 380000 {
		t.Fatalf("quoted total = %d", stored.QuotedTotal.Amount)
	}

	pending := fx.outbox.Pending()
	if len(pending) != 1 || pending[0].Name != "booking.requested" {
		t.Fatalf("outbox = %+v", pending)
	}
}

func TestRequestBookingRejectsTakenDates(t *testing.T) {
	fx := newBookingFixture(t)

	res, err := fx.request.Handle(context.Background(), requestCmd("b-1", date(2025, 7, 1), date(2025, 7, 5)))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := fx.decide.HandleApprove(context.Background(), ApproveBookingCommand{BookingID: res.BookingID, Actor: "admin"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = fx.request.Handle(context.Background(), requestCmd("b-2", date(2025, 7, 3), date(2025, 7, 7)))
	if !errors.Is(err, domainbooking.ErrDateUnavailable) {
		t.Fatalf("want ErrDateUnavailable, got %v", err)
	}
}

func TestRequestBookingValidation(t *testing.T) {
	fx := newBookingFixture(t)

	past := requestCmd("b-1", date(2025, 5, 1), date(2025, 5, 5))
	if _, err := fx.request.Handle(context.Background(), past); !errors.Is(err, domainbooking.ErrCheckInInPast) {
		t.Fatalf("past stay: want ErrCheckInInPast, got %v", err)
	}

	crowded := requestCmd("b-2", date(2025, 7, 1), date(2025, 7, 5))
	crowded.Guests = 3
	if _, err := fx.request.Handle(context.Background(), crowded); !errors.Is(err, domainrates.ErrInvalidGuests) {
		t.Fatalf("guests=3: want ErrInvalidGuests, got %v", err)
	}
}

func TestRequestBookingFailsWithoutBaseRate(t *testing.T) {
	fx := newBookingFixture(t)

	solo := requestCmd("b-1", date(2025, 7, 1), date(2025, 7, 5))
	solo.Guests = 1
	if _, err := fx.request.Handle(context.Background(), solo); !errors.Is(err, domainrates.ErrNoBaseRate) {
		t.Fatalf("want ErrNoBaseRate, got %v", err)
	}
}

func TestApproveRaceOnlyOneWins(t *testing.T) {
	fx := newBookingFixture(t)

	first, err := fx.request.Handle(context.Background(), requestCmd("b-1", date(2025, 7, 1), date(2025, 7, 5)))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Pending requests do not block, so a second request for the same
	// stay is accepted.
	second, err := fx.request.Handle(context.Background(), requestCmd("b-2", date(2025, 7, 1), date(2025, 7, 5)))
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if _, err := fx.decide.HandleApprove(context.Background(), ApproveBookingCommand{BookingID: first.BookingID}); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	_, err = fx.decide.HandleApprove(context.Background(), ApproveBookingCommand{BookingID: second.BookingID})
	if !errors.Is(err, domainbooking.ErrDateUnavailable) {
		t.Fatalf("approve second: want ErrDateUnavailable, got %v", err)
	}

	stored, err := fx.repo.ByID(context.Background(), domainbooking.BookingID(second.BookingID))
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != domainbooking.StatusPending {
		t.Fatalf("losing booking must stay pending, got %s", stored.Status)
	}
}

func TestCancelReopensDatesForNewRequests(t *testing.T) {
	fx := newBookingFixture(t)

	res, err := fx.request.Handle(context.Background(), requestCmd("b-1", date(2025, 7, 1), date(2025, 7, 5)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := fx.decide.HandleApprove(context.Background(), ApproveBookingCommand{BookingID: res.BookingID}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := fx.decide.HandleCancel(context.Background(), CancelBookingCommand{BookingID: res.BookingID, Reason: "guest request"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := fx.request.Handle(context.Background(), requestCmd("b-2", date(2025, 7, 1), date(2025, 7, 5))); err != nil {
		t.Fatalf("rebooking cancelled dates: %v", err)
	}
}

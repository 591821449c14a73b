package booking

import (
	"context"
	"errors"
	"time"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/middleware"
	"peppertree/internal/app/outbox"
	"peppertree/internal/app/policies"
	"peppertree/internal/app/uow"
	"peppertree/internal/domain/availability"
	domainbooking "peppertree/internal/domain/booking"
	domainrange "peppertree/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainbooking.ValidateNotPast(dr, now); err != nil {
		return nil, err
	}

	// Advisory pre-check so obviously taken dates fail fast with conflict
	// detail. The authoritative check runs again inside Create.
	engine := availability.Engine{Bookings: unit.Bookings()}
	free, _, err := engine.IsAvailable(ctx, dr)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainbooking.ErrDateUnavailable
	}

	table, err := unit.Rates().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	_, total, err := table.Quote(dr, cmd.Guests)
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewRequest(domainbooking.RequestParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		Range:           dr,
		Guests:          cmd.Guests,
		GuestName:       cmd.GuestName,
		GuestEmail:      cmd.GuestEmail,
		GuestPhone:      cmd.GuestPhone,
		SpecialRequests: cmd.SpecialRequests,
		QuotedTotal:     total,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Create(ctx, b); err != nil {
		return nil, err
	}

	recorded := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Notifier != nil && b.GuestEmail != "" {
		// Delivery is best effort; a failed mail never fails the booking.
		_ = h.Notifier.Send(ctx, b.GuestEmail, "booking_requested", b)
	}

	return &RequestBookingResult{
		BookingID: string(b.ID),
		Total:     total.Amount,
		Currency:  total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}

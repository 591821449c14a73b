package booking

import (
	"context"
	"time"

	"peppertree/internal/app/outbox"
	"peppertree/internal/app/policies"
	"peppertree/internal/app/uow"
	domainbooking "peppertree/internal/domain/booking"
)

const (
	approveBookingKey  = "booking.approve"
	rejectBookingKey   = "booking.reject"
	cancelBookingKey   = "booking.cancel"
	completeBookingKey = "booking.complete"
	deleteBookingKey   = "booking.delete"
)

type ApproveBookingCommand struct {
	BookingID string
	Actor     string
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

type RejectBookingCommand struct {
	BookingID string
	Reason    string
	Actor     string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type CancelBookingCommand struct {
	BookingID string
	Reason    string
	Actor     string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CompleteBookingCommand struct {
	BookingID string
	Actor     string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type DeleteBookingCommand struct {
	BookingID string
	Actor     string
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

type DecisionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// DecideBookingHandler hosts the admin decision flow: approve, reject,
// cancel, complete and soft delete.
type DecideBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// HandleApprove flips a pending booking to approved. The save re-runs the
// overlap check inside the store, so two pending requests for the same
// dates can never both be approved.
func (h *DecideBookingHandler) HandleApprove(ctx context.Context, cmd ApproveBookingCommand) (*DecisionResult, error) {
	return h.mutate(ctx, cmd.BookingID, "booking_approved", func(b *domainbooking.Booking, now time.Time) error {
		return b.Approve(now)
	})
}

func (h *DecideBookingHandler) HandleReject(ctx context.Context, cmd RejectBookingCommand) (*DecisionResult, error) {
	return h.mutate(ctx, cmd.BookingID, "booking_rejected", func(b *domainbooking.Booking, now time.Time) error {
		return b.Reject(cmd.Reason, now)
	})
}

func (h *DecideBookingHandler) HandleCancel(ctx context.Context, cmd CancelBookingCommand) (*DecisionResult, error) {
	return h.mutate(ctx, cmd.BookingID, "booking_cancelled", func(b *domainbooking.Booking, now time.Time) error {
		return b.Cancel(cmd.Reason, now)
	})
}

func (h *DecideBookingHandler) HandleComplete(ctx context.Context, cmd CompleteBookingCommand) (*DecisionResult, error) {
	return h.mutate(ctx, cmd.BookingID, "", func(b *domainbooking.Booking, now time.Time) error {
		return b.Complete(now)
	})
}

func (h *DecideBookingHandler) HandleDelete(ctx context.Context, cmd DeleteBookingCommand) (*DecisionResult, error) {
	return h.mutate(ctx, cmd.BookingID, "", func(b *domainbooking.Booking, now time.Time) error {
		b.SoftDelete(cmd.Actor, now)
		return nil
	})
}

func (h *DecideBookingHandler) mutate(ctx context.Context, id string, notifyTemplate string, apply func(*domainbooking.Booking, time.Time) error) (*DecisionResult, error) {
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, err
	}

	now := h.now()
	if err := apply(b, now); err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
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

	if h.Notifier != nil && notifyTemplate != "" && b.GuestEmail != "" {
		// Delivery is best effort; a failed mail never fails the decision.
		_ = h.Notifier.Send(ctx, b.GuestEmail, notifyTemplate, b)
	}

	return &DecisionResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func (h *DecideBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *DecideBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

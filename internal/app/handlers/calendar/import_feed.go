package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	"peppertree/internal/app/middleware"
	"peppertree/internal/app/outbox"
	"peppertree/internal/app/policies"
	"peppertree/internal/app/uow"
	domainavail "peppertree/internal/domain/availability"
	domainbooking "peppertree/internal/domain/booking"
	"peppertree/internal/domain/calsync"
)

const importFeedKey = "calendar.import"

var ErrFetcherRequired = errors.New("calendar: feed fetcher required")

type ImportFeedCommand struct {
	CommandID       string
	FeedURL         string
	Platform        string
	IdempotencyKeyV string
}

func (c ImportFeedCommand) Key() string { return importFeedKey }

func (c ImportFeedCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ImportFeedCommand) ResultPrototype() any { return &dto.ImportReport{} }

// ImportFeedHandler pulls one external calendar and merges its events into
// the booking store. The run is partial-failure tolerant: broken events and
// conflicting ranges are reported while the rest import normally. Re-running
// against an unchanged feed imports nothing new.
type ImportFeedHandler struct {
	UoWFactory uow.UoWFactory
	Fetcher    policies.FeedFetcher
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
}

func (h *ImportFeedHandler) Handle(ctx context.Context, cmd ImportFeedCommand) (*dto.ImportReport, error) {
	if h.Fetcher == nil {
		return nil, ErrFetcherRequired
	}

	body, err := h.Fetcher.Fetch(ctx, cmd.FeedURL)
	if err != nil {
		return nil, err
	}
	events, skipped, err := calsync.ParseFeed(body)
	if err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, errors.New("calendar: unit of work required")
		}
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

	report := &dto.ImportReport{
		Platform: cmd.Platform,
		FeedURL:  cmd.FeedURL,
		RunAt:    h.now(),
	}
	for _, perr := range skipped {
		report.Malformed = append(report.Malformed, perr.Error())
	}

	for _, ev := range events {
		if err := h.importEvent(ctx, unit, cmd, ev, report); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return report, nil
}

// importEvent merges a single feed event. Querying the store per event
// (rather than against a pre-run snapshot) makes duplicates within one
// batch resolve the same way as duplicates across runs.
func (h *ImportFeedHandler) importEvent(ctx context.Context, unit uow.UnitOfWork, cmd ImportFeedCommand, ev calsync.Event, report *dto.ImportReport) error {
	store := unit.Bookings()

	if _, found, err := store.FindByExternalUID(ctx, cmd.Platform, ev.UID); err != nil {
		return err
	} else if found {
		report.Skipped++
		return nil
	}

	// Some platforms rotate UIDs between publishes; an imported booking
	// from the same platform with the exact same stay is the same booking.
	if _, found, err := store.FindImportedByRange(ctx, cmd.Platform, ev.Range); err != nil {
		return err
	} else if found {
		report.Skipped++
		return nil
	}

	blocking, err := store.FindBlocking(ctx, ev.Range)
	if err != nil {
		return err
	}
	if free, conflicts := domainavail.Check(blocking, ev.Range); !free {
		report.Conflicts = append(report.Conflicts, conflictEntry(ev, conflicts[0]))
		return nil
	}

	b, err := domainbooking.NewImported(domainbooking.ImportParams{
		ID:          domainbooking.BookingID(h.newID()),
		Range:       ev.Range,
		Platform:    cmd.Platform,
		ExternalUID: ev.UID,
		FeedURL:     cmd.FeedURL,
		Summary:     ev.Summary,
		CreatedAt:   h.now(),
	})
	if err != nil {
		report.Malformed = append(report.Malformed, fmt.Sprintf("event %s: %v", ev.UID, err))
		return nil
	}

	if err := store.Create(ctx, b); err != nil {
		if errors.Is(err, domainbooking.ErrDateUnavailable) {
			report.Conflicts = append(report.Conflicts, dto.ImportConflict{
				UID:      ev.UID,
				CheckIn:  ev.Range.CheckIn,
				CheckOut: ev.Range.CheckOut,
			})
			return nil
		}
		return err
	}

	recorded := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
		return err
	}

	report.Imported++
	return nil
}

func conflictEntry(ev calsync.Event, blockedBy *domainbooking.Booking) dto.ImportConflict {
	return dto.ImportConflict{
		UID:           ev.UID,
		CheckIn:       ev.Range.CheckIn,
		CheckOut:      ev.Range.CheckOut,
		BlockedByID:   string(blockedBy.ID),
		BlockedBySrc:  string(blockedBy.Source),
		BlockedByFrom: blockedBy.Range.CheckIn,
		BlockedByTo:   blockedBy.Range.CheckOut,
	}
}

func (h *ImportFeedHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ImportFeedHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *ImportFeedHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[ImportFeedCommand, *dto.ImportReport] = (*ImportFeedHandler)(nil)
var _ middleware.IdempotentCommand = ImportFeedCommand{}

package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/events"
	"peppertree/internal/domain/shared/money"
)

var (
	ErrInvalidGuests    = errors.New("booking: guests count must be 1 or 2")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrCheckInInPast    = errors.New("booking: check-in date is in the past")
	ErrGuestNameMissing = errors.New("booking: guest name required")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrDateUnavailable  = errors.New("booking: dates are no longer available")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Source tells where a booking came from: the public booking form
// ("local") or a synced third-party calendar ("imported:<platform>").
type Source string

const SourceLocal Source = "local"

const importedPrefix = "imported:"

func ImportedSource(platform string) Source {
	return Source(importedPrefix + strings.ToLower(strings.TrimSpace(platform)))
}

func (s Source) Imported() bool {
	return strings.HasPrefix(string(s), importedPrefix)
}

// Platform returns the originating platform label of an imported booking,
// or the empty string for local bookings.
func (s Source) Platform() string {
	if !s.Imported() {
		return ""
	}
	return strings.TrimPrefix(string(s), importedPrefix)
}

type Booking struct {
	ID              BookingID
	Range           daterange.DateRange
	Guests          int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
	Status          Status
	Source          Source
	ExternalUID     string
	FeedURL         string
	QuotedTotal     money.Money
	AdminNotes      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
	DeletedBy       string
	Version         int64
	events.EventRecorder
}

// Repository is the booking store port. Create and Save carry a
// conflict-detecting write contract: a write that would make the booking
// blocking must fail with ErrDateUnavailable when its range overlaps an
// existing blocking booking, checked inside the store's critical section.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Save(ctx context.Context, b *Booking) error
	List(ctx context.Context) ([]*Booking, error)
	FindBlocking(ctx context.Context, dr daterange.DateRange) ([]*Booking, error)
	FindByExternalUID(ctx context.Context, platform, uid string) (*Booking, bool, error)
	FindImportedByRange(ctx context.Context, platform string, dr daterange.DateRange) (*Booking, bool, error)
	FindExportable(ctx context.Context) ([]*Booking, error)
}

type RequestParams struct {
	ID              BookingID
	Range           daterange.DateRange
	Guests          int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
	QuotedTotal     money.Money
	CreatedAt       time.Time
}

// NewRequest creates a pending booking from the public booking form. The
// quoted total is locked here and never recomputed on approval.
func NewRequest(params RequestParams) (*Booking, error) {
	if params.Guests < 1 || params.Guests > 2 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestName) == "" {
		return nil, ErrGuestNameMissing
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		Range:           params.Range,
		Guests:          params.Guests,
		GuestName:       strings.TrimSpace(params.GuestName),
		GuestEmail:      strings.TrimSpace(params.GuestEmail),
		GuestPhone:      strings.TrimSpace(params.GuestPhone),
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		Status:          StatusPending,
		Source:          SourceLocal,
		QuotedTotal:     params.QuotedTotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{BookingID: b.ID, Range: b.Range, Guests: b.Guests, QuotedTotal: b.QuotedTotal, At: now})
	return b, nil
}

type ImportParams struct {
	ID          BookingID
	Range       daterange.DateRange
	Platform    string
	ExternalUID string
	FeedURL     string
	Summary     string
	CreatedAt   time.Time
}

// NewImported creates an approved blocking booking from an external
// calendar event. Imported bookings never go through the approval flow.
func NewImported(params ImportParams) (*Booking, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	platform := strings.ToLower(strings.TrimSpace(params.Platform))
	if platform == "" {
		return nil, errors.New("booking: import platform required")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		Range:           params.Range,
		Guests:          2,
		GuestName:       platform + " guest",
		Status:          StatusApproved,
		Source:          ImportedSource(platform),
		ExternalUID:     strings.TrimSpace(params.ExternalUID),
		FeedURL:         params.FeedURL,
		SpecialRequests: strings.TrimSpace(params.Summary),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingImported{BookingID: b.ID, Platform: platform, ExternalUID: b.ExternalUID, Range: b.Range, At: now})
	return b, nil
}

// ValidateNotPast rejects check-in dates before today.
func ValidateNotPast(dr daterange.DateRange, now time.Time) error {
	if dr.CheckIn.Before(daterange.Day(now)) {
		return ErrCheckInInPast
	}
	return nil
}

// Blocking reports whether this booking occupies its date range for
// availability purposes. Only approved, non-deleted bookings block;
// imported bookings are created approved and therefore always block.
func (b *Booking) Blocking() bool {
	return b.Status == StatusApproved && b.DeletedAt == nil
}

func (b *Booking) Approve(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusApproved
	b.UpdatedAt = now.UTC()
	b.Record(BookingApproved{BookingID: b.ID, Range: b.Range, Total: b.QuotedTotal, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Reject(reason string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusRejected
	b.AdminNotes = appendNote(b.AdminNotes, reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingRejected{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusApproved:
	default:
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.AdminNotes = appendNote(b.AdminNotes, reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusApproved {
		return ErrInvalidState
	}
	if daterange.Day(now).Before(b.Range.CheckOut) {
		return ErrInvalidState
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// SoftDelete hides the booking from every query while keeping the row for
// audit history. Deleted bookings never block availability.
func (b *Booking) SoftDelete(by string, now time.Time) {
	t := now.UTC()
	b.DeletedAt = &t
	b.DeletedBy = by
	b.UpdatedAt = t
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "peppertree/internal/domain/booking"
	domainrates "peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/daterange"
)

// BookingRepository is the in-memory booking store used by the dev setup
// and the test suite. The write lock is the critical section the
// conflict-detecting write contract requires: the overlap check and the
// insert happen under one lock, so no interleaving can double-book.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok || b.DeletedAt != nil {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkConflict(b); err != nil {
		return err
	}
	stored := cloneBooking(b)
	stored.Version = 1
	r.items[b.ID] = stored
	b.Version = stored.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	if err := r.checkConflict(b); err != nil {
		return err
	}
	stored := cloneBooking(b)
	stored.Version = b.Version + 1
	r.items[b.ID] = stored
	b.Version = stored.Version
	return nil
}

// checkConflict re-runs the overlap scan for writes that would make the
// booking blocking. Callers hold the write lock.
func (r *BookingRepository) checkConflict(b *domainbooking.Booking) error {
	if !b.Blocking() {
		return nil
	}
	for _, other := range r.items {
		if other.ID == b.ID {
			continue
		}
		if other.Blocking() && other.Range.Overlaps(b.Range) {
			return domainbooking.ErrDateUnavailable
		}
	}
	return nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		if b.DeletedAt != nil {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) FindBlocking(ctx context.Context, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Blocking() && b.Range.Overlaps(dr) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) FindByExternalUID(ctx context.Context, platform, uid string) (*domainbooking.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	platform = strings.ToLower(strings.TrimSpace(platform))
	for _, b := range r.items {
		if b.DeletedAt != nil {
			continue
		}
		if b.Source.Platform() == platform && b.ExternalUID == uid && uid != "" {
			return cloneBooking(b), true, nil
		}
	}
	return nil, false, nil
}

func (r *BookingRepository) FindImportedByRange(ctx context.Context, platform string, dr daterange.DateRange) (*domainbooking.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	platform = strings.ToLower(strings.TrimSpace(platform))
	for _, b := range r.items {
		if b.DeletedAt != nil || b.Source.Platform() != platform {
			continue
		}
		if b.Range.Equal(dr) {
			return cloneBooking(b), true, nil
		}
	}
	return nil, false, nil
}

// FindExportable returns confirmed locally created stays: the events the
// outbound feed publishes. Imported bookings are excluded so platforms do
// not re-ingest their own calendars.
func (r *BookingRepository) FindExportable(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Blocking() && !b.Source.Imported() {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	copied := *b
	if b.DeletedAt != nil {
		t := *b.DeletedAt
		copied.DeletedAt = &t
	}
	copied.EventRecorder = b.EventRecorder
	return &copied
}

func sortBookings(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Range.CheckIn.Equal(items[j].Range.CheckIn) {
			return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
		}
		return items[i].ID < items[j].ID
	})
}

// RateRepository is the in-memory rate rule store.
type RateRepository struct {
	mu    sync.RWMutex
	items map[domainrates.RuleID]domainrates.RateRule
}

func NewRateRepository() *RateRepository {
	return &RateRepository{items: make(map[domainrates.RuleID]domainrates.RateRule)}
}

func (r *RateRepository) Snapshot(ctx context.Context) (domainrates.Table, error) {
	rules, err := r.List(ctx, false)
	if err != nil {
		return domainrates.Table{}, err
	}
	return domainrates.NewTable(rules)
}

func (r *RateRepository) ByID(ctx context.Context, id domainrates.RuleID) (domainrates.RateRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return domainrates.RateRule{}, domainrates.ErrRateNotFound
	}
	return rule, nil
}

func (r *RateRepository) Save(ctx context.Context, rule domainrates.RateRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rule.ID] = rule
	return nil
}

func (r *RateRepository) List(ctx context.Context, activeOnly bool) ([]domainrates.RateRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainrates.RateRule, 0, len(r.items))
	for _, rule := range r.items {
		if activeOnly && !rule.Active {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainrates.Repository = (*RateRepository)(nil)

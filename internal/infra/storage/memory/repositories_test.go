package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainbooking "peppertree/internal/domain/booking"
	"peppertree/internal/domain/shared/daterange"
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

func approvedBooking(t *testing.T, id string, in, out time.Time) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewRequest(domainbooking.RequestParams{
		ID:        domainbooking.BookingID(id),
		Range:     stay(t, in, out),
		Guests:    2,
		GuestName: "Guest",
		CreatedAt: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := b.Approve(date(2025, 1, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	b.ClearEvents()
	return b
}

func importedBooking(t *testing.T, id, platform, uid string, in, out time.Time) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewImported(domainbooking.ImportParams{
		ID:          domainbooking.BookingID(id),
		Range:       stay(t, in, out),
		Platform:    platform,
		ExternalUID: uid,
		CreatedAt:   date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("NewImported: %v", err)
	}
	b.ClearEvents()
	return b
}

func TestConcurrentCreateAdmitsExactlyOne(t *testing.T) {
	repo := NewBookingRepository()
	const writers = 16

	bookings := make([]*domainbooking.Booking, writers)
	for i := range bookings {
		bookings[i] = approvedBooking(t, fmt.Sprintf("b-%d", i), date(2025, 7, 1), date(2025, 7, 5))
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), bookings[i])
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, domainbooking.ErrDateUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
}

func TestSaveDetectsConflictOnApproval(t *testing.T) {
	repo := NewBookingRepository()
	if err := repo.Create(context.Background(), approvedBooking(t, "winner", date(2025, 7, 1), date(2025, 7, 5))); err != nil {
		t.Fatalf("Create winner: %v", err)
	}

	loser, err := domainbooking.NewRequest(domainbooking.RequestParams{
		ID:        "loser",
		Range:     stay(t, date(2025, 7, 3), date(2025, 7, 7)),
		Guests:    2,
		GuestName: "Guest",
		CreatedAt: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	// Pending bookings never conflict, so the overlapping request stores fine.
	if err := repo.Create(context.Background(), loser); err != nil {
		t.Fatalf("Create loser: %v", err)
	}

	if err := loser.Approve(date(2025, 1, 2)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := repo.Save(context.Background(), loser); !errors.Is(err, domainbooking.ErrDateUnavailable) {
		t.Fatalf("want ErrDateUnavailable, got %v", err)
	}
}

func TestFindExportableExcludesImportedAndNonBlocking(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	local := approvedBooking(t, "local-1", date(2025, 7, 1), date(2025, 7, 5))
	if err := repo.Create(ctx, local); err != nil {
		t.Fatalf("Create local: %v", err)
	}
	imported := importedBooking(t, "import-1", "airbnb", "evt-1@airbnb.com", date(2025, 8, 1), date(2025, 8, 4))
	if err := repo.Create(ctx, imported); err != nil {
		t.Fatalf("Create imported: %v", err)
	}
	pending, err := domainbooking.NewRequest(domainbooking.RequestParams{
		ID:        "pending-1",
		Range:     stay(t, date(2025, 9, 1), date(2025, 9, 3)),
		Guests:    1,
		GuestName: "Guest",
		CreatedAt: date(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("Create pending: %v", err)
	}

	exportable, err := repo.FindExportable(ctx)
	if err != nil {
		t.Fatalf("FindExportable: %v", err)
	}
	if len(exportable) != 1 || exportable[0].ID != "local-1" {
		t.Fatalf("exportable = %v", exportable)
	}
}

func TestFindByExternalUIDAndRange(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, importedBooking(t, "import-1", "airbnb", "evt-1@airbnb.com", date(2025, 8, 1), date(2025, 8, 4))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, found, err := repo.FindByExternalUID(ctx, "Airbnb", "evt-1@airbnb.com"); err != nil || !found {
		t.Fatalf("FindByExternalUID (case-insensitive platform): found=%v err=%v", found, err)
	}
	if _, found, _ := repo.FindByExternalUID(ctx, "airbnb", "evt-2@airbnb.com"); found {
		t.Fatal("unknown uid reported found")
	}
	if _, found, _ := repo.FindByExternalUID(ctx, "booking.com", "evt-1@airbnb.com"); found {
		t.Fatal("uid matched across platforms")
	}

	dr := stay(t, date(2025, 8, 1), date(2025, 8, 4))
	if _, found, err := repo.FindImportedByRange(ctx, "airbnb", dr); err != nil || !found {
		t.Fatalf("FindImportedByRange: found=%v err=%v", found, err)
	}
	shifted := stay(t, date(2025, 8, 1), date(2025, 8, 5))
	if _, found, _ := repo.FindImportedByRange(ctx, "airbnb", shifted); found {
		t.Fatal("overlapping but unequal range reported as duplicate")
	}
}

func TestRepositoryReturnsClones(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, approvedBooking(t, "b-1", date(2025, 7, 1), date(2025, 7, 5))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := repo.ByID(ctx, "b-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	first.GuestName = "mutated"

	second, err := repo.ByID(ctx, "b-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if second.GuestName != "Guest" {
		t.Fatal("mutation of a returned booking leaked into the store")
	}
}

func TestSoftDeletedBookingsDisappear(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := approvedBooking(t, "b-1", date(2025, 7, 1), date(2025, 7, 5))
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b.SoftDelete("admin", date(2025, 2, 1))
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := repo.ByID(ctx, "b-1"); !errors.Is(err, domainbooking.ErrBookingNotFound) {
		t.Fatalf("want ErrBookingNotFound, got %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("list = %v", list)
	}
	// The dates are free again.
	if err := repo.Create(ctx, approvedBooking(t, "b-2", date(2025, 7, 1), date(2025, 7, 5))); err != nil {
		t.Fatalf("rebooking deleted dates: %v", err)
	}
}

func TestVersionIncrementsOnSave(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := approvedBooking(t, "b-1", date(2025, 7, 1), date(2025, 7, 5))
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Version != 1 {
		t.Fatalf("version after create = %d", b.Version)
	}
	b.AdminNotes = "checked in"
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if b.Version != 2 {
		t.Fatalf("version after save = %d", b.Version)
	}
}

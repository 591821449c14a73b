package dto

import (
	"time"

	domainbooking "peppertree/internal/domain/booking"
)

type AvailabilityCheck struct {
	CheckIn   time.Time      `json:"check_in"`
	CheckOut  time.Time      `json:"check_out"`
	Available bool           `json:"available"`
	Conflicts []ConflictInfo `json:"conflicts,omitempty"`
}

// ConflictInfo describes a blocking booking without exposing guest details.
type ConflictInfo struct {
	BookingID string    `json:"booking_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Source    string    `json:"source"`
}

func ConflictsFromDomain(conflicts []*domainbooking.Booking) []ConflictInfo {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]ConflictInfo, 0, len(conflicts))
	for _, b := range conflicts {
		out = append(out, ConflictInfo{
			BookingID: string(b.ID),
			CheckIn:   b.Range.CheckIn,
			CheckOut:  b.Range.CheckOut,
			Source:    string(b.Source),
		})
	}
	return out
}

type MonthAvailability struct {
	Year         int      `json:"year"`
	Month        int      `json:"month"`
	BlockedDates []string `json:"blocked_dates"`
}

package dto

import "time"

// ImportReport summarizes one feed import run. Conflicted and malformed
// events are reported rather than failing the run.
type ImportReport struct {
	Platform  string           `json:"platform"`
	FeedURL   string           `json:"feed_url"`
	Imported  int              `json:"imported"`
	Skipped   int              `json:"skipped"`
	Conflicts []ImportConflict `json:"conflicts,omitempty"`
	Malformed []string         `json:"malformed,omitempty"`
	RunAt     time.Time        `json:"run_at"`
}

type ImportConflict struct {
	UID           string    `json:"uid"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	BlockedByID   string    `json:"blocked_by_id"`
	BlockedBySrc  string    `json:"blocked_by_source"`
	BlockedByFrom time.Time `json:"blocked_by_check_in"`
	BlockedByTo   time.Time `json:"blocked_by_check_out"`
}

// FeedInfo describes the export feed for the admin calendar-sync page.
type FeedInfo struct {
	FeedURL     string `json:"feed_url"`
	Name        string `json:"name"`
	Timezone    string `json:"timezone"`
	EventCount  int    `json:"event_count"`
	ContentType string `json:"content_type"`
}

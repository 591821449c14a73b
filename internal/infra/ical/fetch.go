package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"peppertree/internal/app/policies"
)

var (
	// ErrFeedUnreachable covers network-level failures: DNS, refused
	// connections, timeouts.
	ErrFeedUnreachable = errors.New("ical: feed unreachable")
	// ErrFeedRejected means the remote answered with a non-success status.
	ErrFeedRejected = errors.New("ical: feed request rejected")
)

// maxFeedBytes caps the response body; a calendar feed for one property
// should never come close.
const maxFeedBytes = 5 << 20

// Fetcher downloads iCal documents over HTTP with a bounded timeout.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Timeout: timeout}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnreachable, err)
	}
	req.Header.Set("Accept", "text/calendar")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFeedRejected, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnreachable, err)
	}
	return body, nil
}

var _ policies.FeedFetcher = (*Fetcher)(nil)

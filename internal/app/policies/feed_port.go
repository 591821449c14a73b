package policies

import "context"

// FeedFetcher retrieves a remote iCal document. Implementations must apply
// a bounded timeout and distinguish unreachable feeds from rejected ones.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

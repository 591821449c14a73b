package policies

import "context"

// Notifier delivers guest-facing notifications. Email delivery lives
// outside this service; implementations adapt whatever transport the
// deployment provides.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}

package notify

import (
	"context"
	"log/slog"

	"peppertree/internal/app/policies"
)

// LogNotifier records outgoing notifications instead of delivering them.
// Production deployments swap in the mail relay adapter; dev and tests run
// on this one.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, to string, template string, data any) error {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "notification", "to", to, "template", template)
	return nil
}

var _ policies.Notifier = LogNotifier{}

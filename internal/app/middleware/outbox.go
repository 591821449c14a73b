package middleware

import (
	"context"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/outbox"
)

// OutboxFlush pushes pending outbox records to the broker after a command
// commits. Flush failures surface to the caller; the records stay queued.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}

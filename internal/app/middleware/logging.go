package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/queries"
)

// CommandLogging records every dispatched command with its outcome and latency.
func CommandLogging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{
				slog.String("command", fmt.Sprintf("%T", cmd)),
				slog.Duration("took", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.ErrorContext(ctx, "command failed", attrs...)
				return nil, err
			}
			logger.InfoContext(ctx, "command handled", attrs...)
			return res, nil
		})
	}
}

// QueryLogging records failed queries. Successful reads stay quiet to keep
// availability polling out of the logs.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := nextFn(ctx, q)
			if err != nil {
				logger.ErrorContext(ctx, "query failed",
					slog.String("query", fmt.Sprintf("%T", q)),
					slog.String("error", err.Error()))
				return nil, err
			}
			return res, nil
		})
	}
}

package hub

import (
	"context"
	"log/slog"
	"time"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// LogCalls returns middleware that logs every routine invocation with its duration.
// Failures log at warn; successes at debug.
func LogCalls(logger *slog.Logger) RoutineMiddleware {
	logger = orDiscard(logger)

	return func(routine string, next chub.RoutineFunc) chub.RoutineFunc {
		return func(ctx context.Context, args chub.Args) (any, error) {
			start := time.Now()
			res, err := next(ctx, args)

			if err != nil {
				logger.WarnContext(ctx, "routine failed",
					slog.String("routine", routine),
					slog.Duration("took", time.Since(start)),
					slog.String("error", err.Error()),
				)

				return res, err
			}

			logger.DebugContext(ctx, "routine done", slog.String("routine", routine), slog.Duration("took", time.Since(start)))

			return res, nil
		}
	}
}

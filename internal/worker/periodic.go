package worker

import (
	"context"
	"log/slog"
	"time"
)

// RunPeriodic calls fn every interval until ctx is done. Errors are logged, not fatal.
func RunPeriodic(ctx context.Context, name string, interval time.Duration, logger *slog.Logger, fn func(context.Context) error) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Error("periodic task failed", slog.String("task", name), slog.String("error", err.Error()))
			}
		}
	}
}

package tasks

import (
	"context"
	"log/slog"
	"time"

	"confcentral/internal/domain"
)

// RunAnnouncementCron recomputes the nearly-sold-out announcement on a fixed
// interval until ctx is cancelled. Failures are logged and the next tick
// proceeds.
func RunAnnouncementCron(ctx context.Context, announcements domain.AnnouncementService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := announcements.Recompute(ctx); err != nil {
				logger.ErrorContext(ctx, "announcement recompute failed", "err", err)
			}
		}
	}
}

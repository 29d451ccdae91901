package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CleanupService enforces retention on the mirrored article/snapshot
// history: the coordination store's Redis lists are already bounded,
// but the Postgres mirror keeps everything until this runs.
type CleanupService struct {
	Pool          PgxPool
	RetentionDays int
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(pool PgxPool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90 // default 90 days
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays}
}

// CleanupOldData removes articles and throughput snapshots older than
// the retention period.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)

	if _, err := s.Pool.Exec(ctx, `DELETE FROM articles WHERE processed_at < $1`, cutoff); err != nil {
		return fmt.Errorf("cleanup articles: %w", err)
	}
	if _, err := s.Pool.Exec(ctx, `DELETE FROM throughput_snapshots WHERE ts < $1`, cutoff); err != nil {
		return fmt.Errorf("cleanup throughput_snapshots: %w", err)
	}

	slog.Info("data cleanup completed", slog.Time("cutoff", cutoff))
	return nil
}

// RunPeriodic starts a periodic cleanup job, blocking until ctx is done.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}

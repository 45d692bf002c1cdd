package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentBriefs/internal/ports"
)

// HistoryPruner periodically drops run history older than the retention period.
type HistoryPruner struct {
	driver     ports.Scheduler
	repository ports.RunRepository
	retention  time.Duration
	logger     *slog.Logger
}

// NewHistoryPruner wires a scheduler driver with the run repository.
func NewHistoryPruner(driver ports.Scheduler, repository ports.RunRepository, retention time.Duration, logger *slog.Logger) *HistoryPruner {
	return &HistoryPruner{driver: driver, repository: repository, retention: retention, logger: logger}
}

// Start registers the prune job; a zero retention disables pruning.
func (p *HistoryPruner) Start(ctx context.Context) error {
	if p.driver == nil || p.repository == nil || p.retention <= 0 {
		return nil
	}

	job := func(trigger time.Time) {
		_, _ = p.Prune(ctx, trigger)
	}

	return p.driver.Start(ctx, job)
}

// Prune deletes runs that started before now minus the retention period.
func (p *HistoryPruner) Prune(ctx context.Context, now time.Time) (int64, error) {
	removed, err := p.repository.PruneBefore(ctx, now.Add(-p.retention))
	if p.logger != nil {
		if err != nil {
			p.logger.Warn("prune history", "error", err)
		} else if removed > 0 {
			p.logger.Info("pruned history", "runs", removed)
		}
	}
	return removed, err
}

// Stop gracefully tears down the underlying scheduler.
func (p *HistoryPruner) Stop(ctx context.Context) error {
	if p.driver == nil {
		return nil
	}

	return p.driver.Stop(ctx)
}

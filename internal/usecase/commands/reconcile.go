package commands

import (
	"context"
	"log/slog"
	"time"

	"opshub/internal/pkg/clock"
	"opshub/internal/usecase/shared"
)

// WebhookReconciler resolves log entries stranded in received by a crash
// between the write-ahead insert and finalization. Marking them failed makes
// the provider's next redelivery eligible for reprocessing instead of being
// rejected as in flight.
type WebhookReconciler struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger

	// StuckAfter is how long an entry may sit in received before it is
	// presumed orphaned. Must comfortably exceed the slowest legitimate
	// ingestion.
	StuckAfter time.Duration
}

func NewWebhookReconciler(uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) *WebhookReconciler {
	return &WebhookReconciler{
		uow:        uow,
		clock:      clk,
		logger:     logger,
		StuckAfter: 10 * time.Minute,
	}
}

func (r *WebhookReconciler) Run(ctx context.Context) (int, error) {
	now := r.clock.Now()
	repos := r.uow.Repos()

	stuck, err := repos.WebhookLog().ListStuck(ctx, now.Add(-r.StuckAfter), 100)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, entry := range stuck {
		if err := repos.WebhookLog().MarkFailed(ctx, entry.ID, "reconciled: stuck in received", now); err != nil {
			// Lost a race with a concurrent finalizer; that entry is no
			// longer stuck.
			r.logger.Warn("stuck webhook entry finalized concurrently",
				"entry_id", entry.ID, "provider", entry.Provider)
			continue
		}
		resolved++
		r.logger.Info("reconciled stuck webhook entry",
			"entry_id", entry.ID,
			"provider", entry.Provider,
			"external_id", entry.ExternalID,
			"age", now.Sub(entry.CreatedAt))
	}
	return resolved, nil
}

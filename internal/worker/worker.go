package worker

import (
	"context"
	"errors"
	"time"

	"inventory-orchestrator/internal/service"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// RefreshWorker keeps the catalog current by triggering a periodic refresh
// in the background.
type RefreshWorker struct {
	orchestrator *service.Orchestrator
	interval     time.Duration
	logger       *zap.Logger
	done         chan struct{}
}

// NewRefreshWorker creates a worker refreshing the catalog every interval
func NewRefreshWorker(orchestrator *service.Orchestrator, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       util.GetLogger(),
		done:         make(chan struct{}),
	}
}

// Start runs the refresh loop until the context is cancelled or Stop is
// called. A refresh already in flight is skipped, not queued.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog refresh worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			if err := w.orchestrator.RefreshCatalog(ctx); err != nil {
				var busy *service.BusyError
				if errors.As(err, &busy) {
					w.logger.Debug("Refresh already in flight, skipping tick")
					continue
				}
				w.logger.Warn("Periodic catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the worker
func (w *RefreshWorker) Stop() {
	w.logger.Info("Stopping catalog refresh worker")
	close(w.done)
}

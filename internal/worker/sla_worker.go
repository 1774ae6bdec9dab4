package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/config"
	"github.com/spec-kit/verification-service/internal/service"
)

// SLAWorker drives the periodic overdue scan. The scan itself is pure
// application logic; this worker only owns the timer.
type SLAWorker struct {
	monitor  *service.SLAMonitor
	interval time.Duration
	logger   *zap.Logger
}

// NewSLAWorker constructs the worker.
func NewSLAWorker(monitor *service.SLAMonitor, cfg config.SLAMonitorConfig, logger *zap.Logger) *SLAWorker {
	return &SLAWorker{
		monitor:  monitor,
		interval: cfg.ScanInterval(),
		logger:   logger,
	}
}

// Run scans on every tick until the context is cancelled.
func (w *SLAWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sla worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sla worker stopped")
			return
		case <-ticker.C:
			fired, err := w.monitor.Scan(ctx)
			if err != nil {
				w.logger.Error("sla scan failed", zap.Error(err))
				continue
			}
			if fired > 0 {
				w.logger.Info("sla scan expired requests", zap.Int("count", fired))
			}
		}
	}
}

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/paygrid/payment-engine/internal/application"
)

// Worker drives the outbox flush loop: mutations enqueue events inside the
// engine's transaction boundary, and this loop moves them to the stream.
type Worker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Worker{logger: logger, service: service, interval: interval}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.service.FlushOutbox(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox flush failed", "error", err)
			}
		}
	}
}

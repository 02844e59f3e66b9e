package worker

import (
	"context"
	"log/slog"
	"time"

	audit "fundmatch/pkg/platform/audit"
)

const defaultBatchSize = 100

// Worker drains the outbox to a publisher. It runs beside the HTTP server
// and retries pending rows on the next tick; rows are only marked published
// after the sink accepts them, so delivery is at-least-once.
type Worker struct {
	outbox    audit.Outbox
	publisher audit.Publisher
	logger    *slog.Logger
	interval  time.Duration
}

func New(outbox audit.Outbox, publisher audit.Publisher, logger *slog.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{outbox: outbox, publisher: publisher, logger: logger, interval: interval}
}

// Run drains until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending events.
func (w *Worker) Drain(ctx context.Context) error {
	pending, err := w.outbox.FetchPending(ctx, defaultBatchSize)
	if err != nil {
		return err
	}

	var published []string
	for _, event := range pending {
		if err := w.publisher.Publish(ctx, event); err != nil {
			// Leave the row pending; preserve ordering by stopping the batch.
			w.logger.WarnContext(ctx, "audit publish failed",
				"event_id", event.ID,
				"action", event.Event.Action,
				"error", err,
			)
			break
		}
		published = append(published, event.ID)
	}

	if len(published) == 0 {
		return nil
	}
	return w.outbox.MarkPublished(ctx, published)
}

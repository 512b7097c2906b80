// Package worker drains the audit publisher's inbox into a sink.
package worker

import (
	"context"
	"log/slog"

	"lifelink/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A sink
// failure is logged and the worker keeps draining; audit loss must never wedge
// the inbox and back-pressure domain operations.
type Worker struct {
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}

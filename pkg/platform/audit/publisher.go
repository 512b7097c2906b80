package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lifelink_audit_events_dropped_total",
	Help: "Audit events dropped because the inbox was full",
})

// Sink persists audit events. Implementations: in-memory (tests, dev) and
// Kafka (production).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher accepts events from domain services without blocking them. A full
// inbox drops the event with a log line and a counter bump; audit is
// best-effort relative to the parent operation.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher builds a Publisher with the given inbox capacity. Pair it with
// a Worker draining Inbox into a Sink.
func NewPublisher(capacity int, logger *slog.Logger) *Publisher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Publisher{
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Emit enqueues the event, stamping the action's category and the request
// correlation id. Never blocks and never fails the caller.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"donor_id", event.DonorID,
		)
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Package memory holds audit events in process. Used by tests and by
// deployments without a Kafka cluster.
package memory

import (
	"context"
	"sync"

	"lifelink/pkg/platform/audit"
)

type Sink struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *Sink {
	return &Sink{}
}

func (s *Sink) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByDonor returns events for one donor, oldest first.
func (s *Sink) ListByDonor(_ context.Context, donorID string) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.Event
	for _, e := range s.events {
		if e.DonorID == donorID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every stored event.
func (s *Sink) All() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

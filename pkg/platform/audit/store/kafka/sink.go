// Package kafka publishes audit events to a Kafka topic. Kafka is the source
// of truth for the audit trail when configured; consumers materialize events
// for querying downstream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"lifelink/pkg/platform/audit"
)

// Sink implements audit.Sink on a franz-go producer.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given seed brokers.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// payload is the JSON structure published to Kafka. Field names are stable;
// downstream consumers deserialize by name.
type payload struct {
	ID                 string `json:"id"`
	Category           string `json:"category"`
	Timestamp          string `json:"timestamp"`
	DonorID            string `json:"donor_id,omitempty"`
	EmergencyRequestID string `json:"emergency_request_id,omitempty"`
	Action             string `json:"action"`
	Subject            string `json:"subject,omitempty"`
	Reason             string `json:"reason,omitempty"`
	RequestID          string `json:"request_id,omitempty"`
}

// Append publishes one event. The record key is the donor id when present so
// a donor's events stay ordered within a partition.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(payload{
		ID:                 uuid.NewString(),
		Category:           string(event.Category),
		Timestamp:          event.Timestamp.Format(time.RFC3339Nano),
		DonorID:            event.DonorID,
		EmergencyRequestID: event.EmergencyRequestID,
		Action:             event.Action,
		Subject:            event.Subject,
		Reason:             event.Reason,
		RequestID:          event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.DonorID),
		Value: body,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return err
	}
	s.client.Close()
	return nil
}

// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"skillchain/internal/events"
	"skillchain/internal/platform/kafka/producer"
)

// DefaultTopic receives every ledger event unless configured otherwise.
const DefaultTopic = "skillchain.events"

// Producer is the subset of producer.Producer the publisher needs.
type Producer interface {
	ProduceAsync(msg *producer.Message) error
}

// Publisher serializes events as JSON and enqueues them for delivery.
// Records are keyed by credential id so all facts about one credential stay ordered
// within a partition.
type Publisher struct {
	producer Producer
	topic    string
}

// New creates a Kafka event publisher. An empty topic selects DefaultTopic.
func New(p Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: p, topic: topic}
}

func (p *Publisher) Emit(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.CredentialID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_id":      event.ID.String(),
			"event_type":    string(event.Type),
			"credential_id": event.CredentialID.String(),
		},
	}
	if event.RequestID != "" {
		msg.Headers["request_id"] = event.RequestID
	}

	if err := p.producer.ProduceAsync(msg); err != nil {
		return fmt.Errorf("enqueue event %s: %w", event.Type, err)
	}
	return nil
}

var _ events.Publisher = (*Publisher)(nil)

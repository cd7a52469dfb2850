//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"skillchain/internal/events"
	kafkaevents "skillchain/internal/events/kafka"
	"skillchain/internal/platform/kafka/producer"
	"skillchain/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) consume(topic string, key string) *kgo.Record {
	ctx := context.Background()
	consumer, err := s.kafka.NewConsumer(ctx, "skillchain-"+topic, topic)
	s.Require().NoError(err)
	s.T().Cleanup(consumer.Close)

	return s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == key
	})
}

func (s *ProducerIntegrationSuite) TestProduceWaitsForAck() {
	ctx := context.Background()
	topic := "ledger-sync"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("7"),
		Value:   []byte(`{"type":"credential_minted"}`),
		Headers: map[string]string{"event_type": "credential_minted"},
	}))

	record := s.consume(topic, "7")
	s.Require().NotNil(record, "acknowledged record must be consumable")
	s.JSONEq(`{"type":"credential_minted"}`, string(record.Value))
	s.Require().Len(record.Headers, 1)
	s.Equal("event_type", record.Headers[0].Key)
}

func (s *ProducerIntegrationSuite) TestLedgerEventRoundTrip() {
	ctx := context.Background()
	topic := fmt.Sprintf("ledger-events-%d", time.Now().UnixNano())

	pub := kafkaevents.New(s.producer, topic)
	event := events.CredentialEndorsed(3, "carol", 100, 12)
	event.RequestID = "req-1"
	s.Require().NoError(pub.Emit(ctx, event))

	record := s.consume(topic, "3")
	s.Require().NotNil(record, "auto-created topic receives the event")

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("credential_endorsed", headers["event_type"])
	s.Equal("3", headers["credential_id"])
	s.Equal("req-1", headers["request_id"])
	s.Equal(event.ID.String(), headers["event_id"])

	var got events.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(event.ID, got.ID)
	s.Equal(events.TypeCredentialEndorsed, got.Type)
	s.Equal(event.Stake, got.Stake)
	s.Equal(event.Endorser, got.Endorser)
}

func (s *ProducerIntegrationSuite) TestEventsForOneCredentialStayOrdered() {
	ctx := context.Background()
	topic := "ledger-ordered"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 3, 1))

	batch := []events.Event{
		events.CredentialMinted(9, "alice", 1),
		events.CredentialVerified(9, "bob", 2),
		events.CredentialEndorsed(9, "carol", 5, 3),
	}
	pub := kafkaevents.New(s.producer, topic)
	for _, e := range batch {
		s.Require().NoError(pub.Emit(ctx, e))
	}

	consumer, err := s.kafka.NewConsumer(ctx, "skillchain-ordered", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var seen []*kgo.Record
	for len(seen) < len(batch) && pollCtx.Err() == nil {
		consumer.PollFetches(pollCtx).EachRecord(func(r *kgo.Record) {
			if string(r.Key) == "9" {
				seen = append(seen, r)
			}
		})
	}
	s.Require().Len(seen, len(batch))

	for i, record := range seen {
		s.Equal(seen[0].Partition, record.Partition, "one key maps to one partition")
		var got events.Event
		s.Require().NoError(json.Unmarshal(record.Value, &got))
		s.Equal(batch[i].Type, got.Type)
	}
}

func (s *ProducerIntegrationSuite) TestHealth() {
	s.NoError(s.producer.Health(context.Background()))
}

func (s *ProducerIntegrationSuite) TestCloseFlushesAsyncRecords() {
	ctx := context.Background()
	topic := "ledger-async"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	prod, err := producer.New(producer.Config{Brokers: s.kafka.Brokers, Acks: "1"}, nil)
	s.Require().NoError(err)
	s.Require().NoError(prod.ProduceAsync(&producer.Message{Topic: topic, Key: []byte("11"), Value: []byte("{}")}))
	s.Require().NoError(prod.Close())
	s.Error(prod.ProduceAsync(&producer.Message{Topic: topic}), "closed producer rejects records")
	s.Error(prod.Health(ctx))

	s.Require().NotNil(s.consume(topic, "11"))
}

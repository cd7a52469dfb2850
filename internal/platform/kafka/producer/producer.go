// Package producer is the franz-go client the ledger event sink writes through.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrClosed is returned for any call made after Close.
var ErrClosed = errors.New("producer is closed")

const closeFlushTimeout = 30 * time.Second

type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Config holds producer configuration. Brokers is a comma-separated seed list.
type Config struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	Linger          time.Duration
}

func DefaultConfig() Config {
	return Config{
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
		Linger:          5 * time.Millisecond,
	}
}

// DeliveryFailureFunc is told about asynchronously produced messages the
// brokers never acknowledged.
type DeliveryFailureFunc func(msg *Message, err error)

type Option func(*Producer)

func WithDeliveryFailure(fn DeliveryFailureFunc) Option {
	return func(p *Producer) {
		p.onFailure = fn
	}
}

type Producer struct {
	client    *kgo.Client
	logger    *slog.Logger
	onFailure DeliveryFailureFunc

	mu     sync.RWMutex
	closed bool
}

func New(cfg Config, logger *slog.Logger, opts ...Option) (*Producer, error) {
	seeds := splitBrokers(cfg.Brokers)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(seeds...),
		kgo.RecordRetries(cfg.Retries),
		kgo.AllowAutoTopicCreation(),
	}
	switch cfg.Acks {
	case "0":
		kopts = append(kopts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case "1":
		kopts = append(kopts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		kopts = append(kopts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	if cfg.Linger > 0 {
		kopts = append(kopts, kgo.ProducerLinger(cfg.Linger))
	}
	if cfg.DeliveryTimeout > 0 {
		kopts = append(kopts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{client: client, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func splitBrokers(list string) []string {
	var seeds []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			seeds = append(seeds, b)
		}
	}
	return seeds
}

func toRecord(msg *Message) *kgo.Record {
	r := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for k, v := range msg.Headers {
		r.Headers = append(r.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return r
}

func (p *Producer) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Produce sends msg and returns once the brokers acknowledged it.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	if p.isClosed() {
		return ErrClosed
	}
	if err := p.client.ProduceSync(ctx, toRecord(msg)).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// ProduceAsync buffers msg for background delivery. Delivery failures go to
// the logger and the DeliveryFailureFunc, never back to the caller.
func (p *Producer) ProduceAsync(msg *Message) error {
	if p.isClosed() {
		return ErrClosed
	}
	p.client.Produce(context.Background(), toRecord(msg), func(r *kgo.Record, err error) {
		if err == nil {
			return
		}
		if p.logger != nil {
			p.logger.Error("kafka delivery failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"error", err,
			)
		}
		if p.onFailure != nil {
			p.onFailure(msg, err)
		}
	})
	return nil
}

// Close flushes buffered messages and shuts down the client. Repeated calls are no-ops.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil && p.logger != nil {
		p.logger.Warn("kafka producer closed with unflushed messages", "error", err)
	}
	p.client.Close()
	return nil
}

func (p *Producer) Health(ctx context.Context) error {
	if p.isClosed() {
		return ErrClosed
	}
	return p.client.Ping(ctx)
}

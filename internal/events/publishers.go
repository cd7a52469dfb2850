package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Recorder keeps emitted events in memory. Used in tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// LogPublisher writes events as structured log lines.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs every event at info level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, string(event.Type),
		"log_type", "event",
		"event_id", event.ID.String(),
		"credential_id", event.CredentialID,
		"caller", event.Caller,
		"owner", event.Owner,
		"endorser", event.Endorser,
		"stake", event.Stake,
		"block_number", event.BlockNumber,
	)
	return nil
}

// Fanout emits to every publisher, joining their errors.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Publisher = (*Recorder)(nil)
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = Fanout(nil)
)

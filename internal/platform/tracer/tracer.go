// Package tracer wraps OpenTelemetry for the mint, verify and endorse calls.
// Services take a Tracer; NewNoop is the default when none is configured.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanMint    = "registry.mint"
	SpanVerify  = "registry.verify"
	SpanEndorse = "endorsement.endorse"
)

// Attribute keys.
const (
	AttrCaller       = "caller"
	AttrCredentialID = "credential.id"
	AttrStake        = "stake"
	AttrMetadataLen  = "metadata.length"
	AttrSoulbound    = "soulbound"
	AttrBlockNumber  = "block.number"
	AttrRequestID    = "request.id"
	AttrOutcome      = "ledger.outcome"
)

// OutcomeCommitted tags spans of calls whose state changes were committed.
const OutcomeCommitted = "committed"

// EventCommitted marks the point a call's writes reached the backend.
const EventCommitted = "state.committed"

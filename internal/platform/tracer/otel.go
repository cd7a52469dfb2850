package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/requestcontext"
)

// InstrumentationName is the scope every ledger span is recorded under.
const InstrumentationName = "skillchain/ledger"

// OTelTracer adapts an OpenTelemetry tracer to Tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

type OTelOption func(*OTelTracer)

// WithOTelTracer replaces the tracer taken from the global provider.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) {
		o.tracer = t
	}
}

func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(InstrumentationName)
	}
	return t
}

// Start opens an internal span. The request id from ctx, when present, is
// attached so spans can be joined with the request log line.
func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	kvs := toOTelAttributes(attrs)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		kvs = append(kvs, attribute.String(AttrRequestID, requestID))
	}
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(kvs...),
	)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// End records the call outcome. A rejected call only tags the span; a node
// failure also marks it failed.
func (s *otelSpan) End(err error) {
	if err != nil {
		code := dErrors.CodeOf(err)
		s.span.SetAttributes(attribute.String(AttrOutcome, string(code)))
		if !dErrors.Rejected(err) {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		}
	} else {
		s.span.SetAttributes(attribute.String(AttrOutcome, OutcomeCommitted))
	}
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(toOTelAttributes(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toOTelAttributes(attrs)...))
}

func toOTelAttributes(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, toOTelAttribute(a))
	}
	return out
}

func toOTelAttribute(a Attribute) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case uint32:
		return attribute.Int64(a.Key, int64(v))
	case float64:
		return attribute.Float64(a.Key, v)
	case fmt.Stringer:
		// Balances are u64 and can exceed int64, so they travel as text.
		return attribute.String(a.Key, v.String())
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = (*otelSpan)(nil)
)

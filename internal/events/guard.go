package events

import (
	"context"
	"errors"
	"log/slog"

	"skillchain/pkg/platform/circuit"
)

// ErrSinkUnavailable is returned while the guarded sink's circuit is open.
var ErrSinkUnavailable = errors.New("event sink unavailable")

// Guarded skips a failing publisher while its circuit is open, so a down broker
// costs one failed attempt per cool-down instead of one per ledger call.
type Guarded struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewGuarded wraps next with breaker.
func NewGuarded(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Emit(ctx context.Context, event Event) error {
	if !g.breaker.Allow() {
		return ErrSinkUnavailable
	}
	err := g.next.Emit(ctx, event)
	if state, changed := g.breaker.Record(err); changed && g.logger != nil {
		g.logger.WarnContext(ctx, "event sink circuit changed state",
			"sink", g.breaker.Name(),
			"state", state.String(),
			"error", err,
		)
	}
	return err
}

var _ Publisher = (*Guarded)(nil)

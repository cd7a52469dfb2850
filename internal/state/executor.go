package state

import (
	"context"
	"log/slog"
	"sync"

	dErrors "skillchain/pkg/domain-errors"
)

// Executor applies ledger calls serially against a Backend.
//
// Only one call runs at a time. A call either commits every write it buffered
// or, on any error, commits nothing. Read-only views take the same lock so a
// half-applied call is never observable.
type Executor struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
}

// ExecutorOption configures the executor.
type ExecutorOption func(*Executor)

// WithLogger configures a logger for commit failures.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor over backend.
func NewExecutor(backend Backend, opts ...ExecutorOption) *Executor {
	e := &Executor{backend: backend}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs fn against a fresh overlay and commits the overlay if fn returns nil.
func (e *Executor) Execute(ctx context.Context, fn func(kv ReadWriter) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "call aborted: context cancelled")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	overlay := NewOverlay(e.backend)
	if err := fn(overlay); err != nil {
		return err
	}
	if overlay.Len() == 0 {
		return nil
	}

	// The call already succeeded; a late cancellation must not split the commit.
	commitCtx := context.WithoutCancel(ctx)
	if err := e.backend.Commit(commitCtx, overlay.Changes()); err != nil {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "failed to commit state changes",
				"error", err,
				"writes", overlay.Len(),
			)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit state changes")
	}
	return nil
}

// View runs fn against committed state.
func (e *Executor) View(ctx context.Context, fn func(kv Reader) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "query aborted: context cancelled")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.backend)
}

// Package sequence supplies the block number recorded as a credential's issuedAt.
package sequence

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	id "skillchain/pkg/domain"
)

// Sequencer reports the current block number. It is read-only from the
// ledger's point of view.
type Sequencer interface {
	BlockNumber(ctx context.Context) (id.BlockNumber, error)
}

// Manual is a Sequencer advanced explicitly by the caller.
type Manual struct {
	n atomic.Uint64
}

// NewManual returns a Manual positioned at start.
func NewManual(start id.BlockNumber) *Manual {
	m := &Manual{}
	m.n.Store(uint64(start))
	return m
}

func (m *Manual) BlockNumber(_ context.Context) (id.BlockNumber, error) {
	return id.BlockNumber(m.n.Load()), nil
}

// Advance moves the block number forward by one and returns the new value.
func (m *Manual) Advance() id.BlockNumber {
	return id.BlockNumber(m.n.Add(1))
}

// Set positions the sequencer at n. Moving backwards is ignored.
func (m *Manual) Set(n id.BlockNumber) {
	for {
		cur := m.n.Load()
		if uint64(n) <= cur || m.n.CompareAndSwap(cur, uint64(n)) {
			return
		}
	}
}

// Ticker advances the block number once per interval while Run is active.
type Ticker struct {
	Manual
	interval time.Duration
	logger   *slog.Logger
}

// NewTicker creates a Ticker starting at start.
func NewTicker(start id.BlockNumber, interval time.Duration, logger *slog.Logger) *Ticker {
	t := &Ticker{interval: interval, logger: logger}
	t.n.Store(uint64(start))
	return t
}

// Run advances the block number until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	if t.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if t.logger != nil {
				t.logger.Info("block ticker stopped", "block_number", t.n.Load())
			}
			return nil
		case <-ticker.C:
			t.Advance()
		}
	}
}

var (
	_ Sequencer = (*Manual)(nil)
	_ Sequencer = (*Ticker)(nil)
)

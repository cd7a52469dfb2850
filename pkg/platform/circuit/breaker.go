// Package circuit provides a consecutive-failure circuit breaker with a cool-down.
package circuit

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a single probe through; its outcome decides the next state.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker opens after FailureThreshold consecutive failures and stays open for
// the cool-down. The first call after the cool-down is a probe: success closes
// the circuit, failure re-opens it for another cool-down.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	failureThreshold int
	coolDown         time.Duration
	openedAt         time.Time
	probing          bool
	now              func() time.Time
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures to open the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCoolDown sets how long the circuit stays open before probing. Default is 30s.
func WithCoolDown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.coolDown = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a circuit breaker with the given name and options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		coolDown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the circuit breaker's name for logging/metrics.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. Callers that get true must report
// the outcome with Record.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.coolDown {
			return false
		}
		b.state = StateHalfOpen
		b.probing = true
		return true
	default:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

// Record reports the outcome of an allowed call and returns the state after it,
// plus whether the call changed the state.
func (b *Breaker) Record(err error) (State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.state
	if err == nil {
		b.failures = 0
		b.probing = false
		b.state = StateClosed
		return b.state, before != b.state
	}

	b.failures++
	switch {
	case b.state == StateHalfOpen:
		b.open()
	case b.state == StateClosed && b.failures >= b.failureThreshold:
		b.open()
	}
	return b.state, before != b.state
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.probing = false
}

// Reset closes the circuit and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probing = false
}

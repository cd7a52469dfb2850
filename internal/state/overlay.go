package state

import (
	"bytes"
	"context"
)

// Overlay buffers writes on top of a Reader.
// Reads see the overlay's own writes first, then the base.
type Overlay struct {
	base   Reader
	writes map[string][]byte
	order  []string
}

// NewOverlay creates an empty overlay over base.
func NewOverlay(base Reader) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

// Get returns the buffered value for key, falling back to the base.
func (o *Overlay) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := o.writes[key]; ok {
		return bytes.Clone(v), nil
	}
	return o.base.Get(ctx, key)
}

// Put buffers value at key. The value is copied.
func (o *Overlay) Put(key string, value []byte) {
	if _, ok := o.writes[key]; !ok {
		o.order = append(o.order, key)
	}
	o.writes[key] = bytes.Clone(value)
}

// Changes returns the buffered writes in first-write order.
func (o *Overlay) Changes() ChangeSet {
	changes := make(ChangeSet, 0, len(o.order))
	for _, key := range o.order {
		changes = append(changes, Write{Key: key, Value: bytes.Clone(o.writes[key])})
	}
	return changes
}

// Len returns the number of distinct keys written.
func (o *Overlay) Len() int {
	return len(o.order)
}

// Package state provides the key-value store the ledger modules write into.
//
// Every ledger call runs through an Executor: the call sees an Overlay that
// buffers its writes on top of committed state, and the Overlay's change set is
// handed to the Backend in one atomic commit only if the call succeeds. Calls
// are applied one at a time, in the order they are presented.
//
// Backends:
//   - memory.Store: in-process, for tests and local development
//   - postgres.Store: durable, one SQL transaction per committed call
//   - redis.Store: durable, one MULTI/EXEC per committed call
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"skillchain/internal/sentinel"
)

// Reader reads raw values. Missing keys return sentinel.ErrNotFound.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ReadWriter is the view a ledger call gets while it runs.
// Writes are buffered and only become visible to other calls after commit.
type ReadWriter interface {
	Reader
	Put(key string, value []byte)
}

// Write is a single key assignment inside a change set.
type Write struct {
	Key   string
	Value []byte
}

// ChangeSet is the ordered list of writes produced by one call.
// Each key appears at most once, holding its final value.
type ChangeSet []Write

// Backend persists committed change sets.
// Commit must apply every write or none of them.
type Backend interface {
	Reader
	Commit(ctx context.Context, changes ChangeSet) error
}

// Key joins keyspace segments with '/'.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// GetJSON decodes the value stored at key into T.
// The boolean reports whether the key existed.
func GetJSON[T any](ctx context.Context, r Reader, key string) (T, bool, error) {
	var out T
	raw, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return out, false, nil
		}
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, true, nil
}

// PutJSON encodes v and buffers it at key.
func PutJSON(w ReadWriter, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	w.Put(key, raw)
	return nil
}

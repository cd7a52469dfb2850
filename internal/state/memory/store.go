package memory

import (
	"bytes"
	"context"
	"maps"
	"sync"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
)

// Store is an in-memory implementation of state.Backend for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte

	// failCommit lets tests simulate a backend that rejects commits.
	failCommit error
}

// New constructs an empty in-memory state store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key or sentinel.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Commit applies every write in changes under one lock.
func (s *Store) Commit(_ context.Context, changes state.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit != nil {
		return s.failCommit
	}
	for _, w := range changes {
		s.data[w.Key] = bytes.Clone(w.Value)
	}
	return nil
}

// Snapshot returns a deep copy of all committed state.
func (s *Store) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		out[k] = bytes.Clone(v)
	}
	return out
}

// Keys returns the committed key set.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range maps.Keys(s.data) {
		keys = append(keys, k)
	}
	return keys
}

// FailCommits makes every subsequent Commit return err. Pass nil to reset.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

var _ state.Backend = (*Store)(nil)

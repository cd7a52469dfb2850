package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
)

// DefaultPrefix namespaces ledger keys inside a shared Redis database.
const DefaultPrefix = "skillchain:"

// Store persists ledger state in Redis.
// Each committed change set is sent as one MULTI/EXEC block.
type Store struct {
	client redis.Cmdable
	prefix string
}

// Option configures the store.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New constructs a Redis-backed state store.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get state %s: %w", sentinel.ErrUnavailable, key, err)
	}
	return value, nil
}

func (s *Store) Commit(ctx context.Context, changes state.ChangeSet) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range changes {
			pipe.Set(ctx, s.prefix+w.Key, w.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: commit state: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

var _ state.Backend = (*Store)(nil)

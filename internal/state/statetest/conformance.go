// Package statetest holds behavior shared by every state.Backend implementation.
package statetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
)

// Run exercises backend against the Backend contract. newBackend must return
// an empty backend for each call.
func Run(t *testing.T, newBackend func(t *testing.T) state.Backend) {
	ctx := context.Background()

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(ctx, "registry/credential/0")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("committed writes are readable", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Commit(ctx, state.ChangeSet{
			{Key: "a", Value: []byte(`1`)},
			{Key: "b", Value: []byte{0x00, 0xff}},
		}))

		got, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte(`1`), got)

		got, err = b.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xff}, got)
	})

	t.Run("later commits overwrite", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Commit(ctx, state.ChangeSet{{Key: "a", Value: []byte(`1`)}}))
		require.NoError(t, b.Commit(ctx, state.ChangeSet{{Key: "a", Value: []byte(`2`)}}))

		got, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte(`2`), got)
	})

	t.Run("failed call commits nothing", func(t *testing.T) {
		b := newBackend(t)
		executor := state.NewExecutor(b)

		err := executor.Execute(ctx, func(kv state.ReadWriter) error {
			kv.Put("a", []byte(`1`))
			return errors.New("rejected")
		})
		require.Error(t, err)

		_, err = b.Get(ctx, "a")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("call reads its own writes before commit", func(t *testing.T) {
		b := newBackend(t)
		executor := state.NewExecutor(b)

		require.NoError(t, executor.Execute(ctx, func(kv state.ReadWriter) error {
			kv.Put("counter", []byte(`1`))
			got, err := kv.Get(ctx, "counter")
			if err != nil {
				return err
			}
			assert.Equal(t, []byte(`1`), got)
			_, err = b.Get(ctx, "counter")
			assert.ErrorIs(t, err, sentinel.ErrNotFound, "uncommitted write leaked to the backend")
			return nil
		}))

		got, err := b.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, []byte(`1`), got)
	})
}

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/sentinel"
)

type mapReader map[string][]byte

func (m mapReader) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return nil, sentinel.ErrNotFound
}

func TestOverlay(t *testing.T) {
	ctx := context.Background()

	t.Run("falls through to base", func(t *testing.T) {
		o := NewOverlay(mapReader{"a": []byte("base")})
		v, err := o.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "base", string(v))
	})

	t.Run("missing keys report not found", func(t *testing.T) {
		o := NewOverlay(mapReader{})
		_, err := o.Get(ctx, "a")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("last write wins and keeps first-write order", func(t *testing.T) {
		o := NewOverlay(mapReader{})
		o.Put("b", []byte("1"))
		o.Put("a", []byte("2"))
		o.Put("b", []byte("3"))

		changes := o.Changes()
		require.Len(t, changes, 2)
		assert.Equal(t, Write{Key: "b", Value: []byte("3")}, changes[0])
		assert.Equal(t, Write{Key: "a", Value: []byte("2")}, changes[1])
	})

	t.Run("buffered values are copied", func(t *testing.T) {
		o := NewOverlay(mapReader{})
		buf := []byte("x")
		o.Put("a", buf)
		buf[0] = 'y'

		v, err := o.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "x", string(v))
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "registry/credential/7", Key("registry", "credential", "7"))
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("get missing record", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		rec := &Record{ID: "echo", Type: "bot.echo", Enabled: true, PrimaryUser: "@bot:example.com"}
		require.NoError(t, s.Put(ctx, rec))

		got, err := s.Get(ctx, "echo")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := s.Get(ctx, "echo")
		require.NoError(t, err)
		got.Enabled = false

		again, err := s.Get(ctx, "echo")
		require.NoError(t, err)
		assert.True(t, again.Enabled)
	})

	t.Run("put without id", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, &Record{}), ErrInvalidID)
		assert.ErrorIs(t, s.Put(ctx, nil), ErrInvalidID)
	})

	t.Run("all sorted by id", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, &Record{ID: "alarm", Type: "bot.alarm"}))

		recs, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "alarm", recs[0].ID)
		assert.Equal(t, "echo", recs[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "alarm"))
		_, err := s.Get(ctx, "alarm")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "alarm"), ErrNotFound)
	})
}

func TestMemoryStoreNamespace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ns := s.Namespace("echo")

	t.Run("empty namespace", func(t *testing.T) {
		_, err := ns.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		keys, err := ns.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, ns.Set(ctx, "greeting", "hello"))
		require.NoError(t, ns.Set(ctx, "count", "3"))

		v, err := ns.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", v)

		keys, err := ns.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"count", "greeting"}, keys)

		require.NoError(t, ns.Delete(ctx, "count"))
		assert.ErrorIs(t, ns.Delete(ctx, "count"), ErrNotFound)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.ErrorIs(t, ns.Set(ctx, "", "v"), ErrInvalidKey)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		other := s.Namespace("alarm")
		_, err := other.Get(ctx, "greeting")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, ns.Clear(ctx))
		keys, err := ns.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

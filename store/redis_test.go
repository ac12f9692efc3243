package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a miniredis instance and returns a connected RedisStore.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestNewRedisStore(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		s := setupRedisStore(t)
		require.NotNil(t, s)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := NewRedisStore(RedisOptions{URL: "://not-a-url"})
		assert.Error(t, err)
	})
}

func TestRedisStoreRecords(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	rec := &Record{
		ID:          "echo",
		Type:        "bot.echo",
		Enabled:     true,
		PrimaryUser: "@bot:example.com",
		RawConfig:   "greeting: hi\n",
	}

	t.Run("get missing record", func(t *testing.T) {
		_, err := s.Get(ctx, "echo")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put and get round-trip", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, rec))

		got, err := s.Get(ctx, "echo")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("put replaces wholesale", func(t *testing.T) {
		updated := *rec
		updated.Enabled = false
		require.NoError(t, s.Put(ctx, &updated))

		got, err := s.Get(ctx, "echo")
		require.NoError(t, err)
		assert.False(t, got.Enabled)

		// restore for later subtests
		require.NoError(t, s.Put(ctx, rec))
	})

	t.Run("all uses index", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, &Record{ID: "alarm", Type: "bot.alarm"}))

		recs, err := s.All(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("delete removes record and index entry", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "alarm"))

		recs, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "echo", recs[0].ID)

		assert.ErrorIs(t, s.Delete(ctx, "alarm"), ErrNotFound)
	})

	t.Run("put without id", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, &Record{}), ErrInvalidID)
	})
}

func TestRedisStoreNamespace(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)
	ns := s.Namespace("echo")

	require.NoError(t, ns.Set(ctx, "state", "idle"))
	require.NoError(t, ns.Set(ctx, "last_user", "@a:example.com"))

	v, err := ns.Get(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, "idle", v)

	keys, err := ns.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"state", "last_user"}, keys)

	_, err = s.Namespace("other").Get(ctx, "state")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ns.Delete(ctx, "state"))
	assert.ErrorIs(t, ns.Delete(ctx, "state"), ErrNotFound)

	require.NoError(t, ns.Clear(ctx))
	keys, err = ns.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, ns.Set(ctx, "", "v"), ErrInvalidKey)
}

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutGet(t *testing.T) {
	r := NewRegistry()

	c := &Client{UserID: "@bot:example.com"}
	require.NoError(t, r.Put(c))

	got, err := r.Get("@bot:example.com")
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.NotEmpty(t, got.Token)
	assert.NotNil(t, got.HTTP)

	_, err = r.Get("@other:example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryDuplicatePut(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Put(&Client{UserID: "@bot:example.com"}))
	assert.ErrorIs(t, r.Put(&Client{UserID: "@bot:example.com"}), ErrExists)
}

func TestRegistryPutValidation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Put(nil))
	assert.Error(t, r.Put(&Client{}))
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put(&Client{UserID: "@bot:example.com"}))

	t.Run("refuses while referenced", func(t *testing.T) {
		set, err := r.Refs("@bot:example.com")
		require.NoError(t, err)
		set.Add("echo")

		assert.ErrorIs(t, r.Remove("@bot:example.com"), ErrInUse)

		set.Remove("echo")
		assert.NoError(t, r.Remove("@bot:example.com"))
	})

	t.Run("missing client", func(t *testing.T) {
		assert.ErrorIs(t, r.Remove("@bot:example.com"), ErrNotFound)
	})
}

func TestRegistryUserIDs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put(&Client{UserID: "@b:example.com"}))
	require.NoError(t, r.Put(&Client{UserID: "@a:example.com"}))

	assert.Equal(t, []string{"@a:example.com", "@b:example.com"}, r.UserIDs())
}

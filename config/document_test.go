package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		doc, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Len())

		doc, err = Parse([]byte("   \n"))
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Len())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("a: [unclosed"))
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("non-mapping top level", func(t *testing.T) {
		_, err := Parse([]byte("- just\n- a\n- list\n"))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestRoundTrip(t *testing.T) {
	// Comments, key order, nesting, and quoting must survive a
	// load/serialize cycle so hand-edited configs keep their formatting.
	src := `# Echo plugin instance settings.
greeting: hello # shown on join
rooms:
    - lobby
    - help
limits:
    per_room: 5
    per_user: 2
admin: "@op:example.com"
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))

	// A second cycle must be stable too.
	doc2, err := Parse(out)
	require.NoError(t, err)
	out2, err := doc2.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(out), string(out2))
}

func TestDocumentGet(t *testing.T) {
	doc, err := Parse([]byte("a: 1\nnested:\n    b: two\n    deep:\n        c: true\n"))
	require.NoError(t, err)

	v, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = doc.Get("nested.b")
	require.True(t, ok)
	assert.Equal(t, "two", v)

	v, ok = doc.Get("nested.deep.c")
	require.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = doc.Get("missing")
	assert.False(t, ok)
	_, ok = doc.Get("a.b")
	assert.False(t, ok)
	_, ok = doc.Get("nested.missing")
	assert.False(t, ok)
}

func TestDocumentSet(t *testing.T) {
	t.Run("replace keeps comments", func(t *testing.T) {
		doc, err := Parse([]byte("greeting: hello # shown on join\n"))
		require.NoError(t, err)

		require.NoError(t, doc.Set("greeting", "howdy"))

		out, err := doc.Marshal()
		require.NoError(t, err)
		assert.Equal(t, "greeting: howdy # shown on join\n", string(out))
	})

	t.Run("create nested path", func(t *testing.T) {
		doc := Empty()
		require.NoError(t, doc.Set("limits.per_room", 7))

		v, ok := doc.Get("limits.per_room")
		require.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("scalar in path", func(t *testing.T) {
		doc, err := Parse([]byte("a: 1\n"))
		require.NoError(t, err)
		assert.Error(t, doc.Set("a.b", 2))
	})
}

func TestMerge(t *testing.T) {
	t.Run("override wins per key", func(t *testing.T) {
		base, err := Parse([]byte("a: 1\nb: 2\n"))
		require.NoError(t, err)
		override, err := Parse([]byte("b: 5\nc: 9\n"))
		require.NoError(t, err)

		merged := Merge(base, override)

		v, _ := merged.Get("a")
		assert.Equal(t, 1, v)
		v, _ = merged.Get("b")
		assert.Equal(t, 5, v)
		v, _ = merged.Get("c")
		assert.Equal(t, 9, v)
		assert.Equal(t, []string{"a", "b", "c"}, merged.Keys())
	})

	t.Run("nested mappings merge recursively", func(t *testing.T) {
		base, err := Parse([]byte("limits:\n    per_room: 5\n    per_user: 2\n"))
		require.NoError(t, err)
		override, err := Parse([]byte("limits:\n    per_user: 9\n"))
		require.NoError(t, err)

		merged := Merge(base, override)

		v, _ := merged.Get("limits.per_room")
		assert.Equal(t, 5, v)
		v, _ = merged.Get("limits.per_user")
		assert.Equal(t, 9, v)
	})

	t.Run("non-mapping values replaced wholesale", func(t *testing.T) {
		base, err := Parse([]byte("rooms:\n    - lobby\n    - help\n"))
		require.NoError(t, err)
		override, err := Parse([]byte("rooms:\n    - ops\n"))
		require.NoError(t, err)

		merged := Merge(base, override)
		v, ok := merged.Get("rooms")
		require.True(t, ok)
		assert.Equal(t, []any{"ops"}, v)
	})

	t.Run("nil layers", func(t *testing.T) {
		doc, err := Parse([]byte("a: 1\n"))
		require.NoError(t, err)

		assert.Equal(t, 0, Merge(nil, nil).Len())

		v, _ := Merge(nil, doc).Get("a")
		assert.Equal(t, 1, v)
		v, _ = Merge(doc, nil).Get("a")
		assert.Equal(t, 1, v)
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		base, err := Parse([]byte("a: 1\n"))
		require.NoError(t, err)
		override, err := Parse([]byte("a: 2\nb: 3\n"))
		require.NoError(t, err)

		_ = Merge(base, override)

		v, _ := base.Get("a")
		assert.Equal(t, 1, v)
		assert.Equal(t, []string{"a"}, base.Keys())
	})
}

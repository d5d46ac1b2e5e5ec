package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/storage"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := "not really a pdf"
	require.NoError(t, store.Put(ctx, "paper_1700000000.pdf", strings.NewReader(content), int64(len(content)), "application/pdf"))

	obj, err := store.Get(ctx, "paper_1700000000.pdf")
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestLocalStorage_List(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alpha.pdf", strings.NewReader("a"), 1, "application/pdf"))
	require.NoError(t, store.Put(ctx, "beta.pdf", strings.NewReader("b"), 1, "application/pdf"))

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha.pdf", "beta.pdf"}, keys)

	keys, err = store.List(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.pdf"}, keys)
}

func TestLocalStorage_Delete(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "gone.pdf", strings.NewReader("x"), 1, "application/pdf"))
	require.NoError(t, store.Delete(ctx, "gone.pdf"))

	_, err = store.Get(ctx, "gone.pdf")
	assert.Error(t, err)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../outside.pdf", "/etc/passwd", "a/../../b.pdf"} {
		err := store.Put(ctx, key, strings.NewReader("x"), 1, "application/pdf")
		assert.Error(t, err, "key %q must be rejected", key)
	}
}

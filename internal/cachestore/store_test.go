package cachestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, found, err := store.Get("1923.json")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put("1923.json", []byte(`{"results":{}}`)))

	body, found, err := store.Get("1923.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"results":{}}`), body)
}

func TestStoreGetOrFillFillsOnce(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	fills := 0
	fill := func() ([]byte, error) {
		fills++
		return []byte("body"), nil
	}

	body, err := store.GetOrFill("key.json", fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), body)

	body, err = store.GetOrFill("key.json", fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), body)
	assert.Equal(t, 1, fills)
}

func TestStoreGetOrFillDoesNotCacheFailures(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	boom := errors.New("boom")
	_, err := store.GetOrFill("key.json", func() ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// The failed fill must leave no entry behind.
	_, found, err := store.Get("key.json")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreSanitizesKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Put("gösta/berlings saga.json", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.NotContains(t, entries[0].Name(), " ")

	body, found, err := store.Get("gösta/berlings saga.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("x"), body)
}

func TestNewCreatesNestedDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "cache", "json")
	_, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

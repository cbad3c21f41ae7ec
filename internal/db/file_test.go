package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	values, err := store.GetValues(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "record.json")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.SetValues(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, store.SetValues(ctx, map[string]string{"b": "3"}))

	values, err := store.GetValues(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, values)

	// No temp files left next to the state file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, store.Close())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	store := NewFileStore(path)

	_, err := store.GetValues(context.Background(), "a")
	assert.Error(t, err)

	// A write replaces the corrupt content.
	require.NoError(t, store.SetValues(context.Background(), map[string]string{"a": "1"}))
	values, err := store.GetValues(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "1", values["a"])
}

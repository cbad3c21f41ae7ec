package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	values, err := store.GetValues(ctx, "LAST_NEW_CVE")
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.SetValues(ctx, map[string]string{
		"LAST_NEW_CVE":      "2024-01-01T00:00:00",
		"LAST_MODIFIED_CVE": "2024-01-02T00:00:00",
	}))
	require.NoError(t, store.SetValues(ctx, map[string]string{
		"LAST_NEW_CVE": "2024-01-03T00:00:00",
	}))

	values, err = store.GetValues(ctx, "LAST_NEW_CVE", "LAST_MODIFIED_CVE")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03T00:00:00", values["LAST_NEW_CVE"])
	assert.Equal(t, "2024-01-02T00:00:00", values["LAST_MODIFIED_CVE"])
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SetValues(ctx, map[string]string{"k": "v"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	values, err := store.GetValues(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", values["k"])
}

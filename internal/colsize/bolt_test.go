package colsize

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "sizes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore_EmptyTable(t *testing.T) {
	store := openStore(t)

	widths, err := store.Table(context.Background(), "data")
	require.NoError(t, err)
	assert.Empty(t, widths)
}

func TestBoltStore_TablePrefix(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.SetTable(ctx, "data", map[string]int{"a": 1}))
	require.NoError(t, store.SetTable(ctx, "data2", map[string]int{"b": 2}))

	widths, err := store.Table(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, widths)
}

func TestBoltStore_SetTableReplaces(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.SetTable(ctx, "data", map[string]int{"a": 1, "b": 2}))
	require.NoError(t, store.SetTable(ctx, "logs", map[string]int{"msg": 255}))
	require.NoError(t, store.SetTable(ctx, "data", map[string]int{"c": 3}))

	widths, err := store.Table(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c": 3}, widths)

	widths, err = store.Table(ctx, "logs")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"msg": 255}, widths)
}

func TestBoltStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sizes.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetTable(ctx, "data", map[string]int{"id": 7}))
	require.NoError(t, store.Close())

	store, err = NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	widths, err := store.Table(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"id": 7}, widths)
}

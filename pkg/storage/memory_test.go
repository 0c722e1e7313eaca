package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdex/pkg/storage"
)

type doc struct {
	Name string `json:"name"`
}

func TestMemoryConn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := storage.NewMemoryFactory()
	conn, err := f.Open(ctx, "1000000001", "")
	require.NoError(t, err)
	assert.Equal(t, "1000000001", conn.AccountID())
	require.NoError(t, conn.Ping(ctx))

	var got doc
	require.ErrorIs(t, conn.Get(ctx, "things", "a", &got), storage.ErrNoDocument)

	require.NoError(t, conn.Put(ctx, "things", "a", doc{Name: "alpha"}))
	require.NoError(t, conn.Put(ctx, "things", "b", doc{Name: "beta"}))
	require.NoError(t, conn.Get(ctx, "things", "a", &got))
	assert.Equal(t, "alpha", got.Name)

	var all []doc
	require.NoError(t, conn.List(ctx, "things", &all))
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "beta", all[1].Name)

	require.NoError(t, conn.Delete(ctx, "things", "a"))
	require.ErrorIs(t, conn.Delete(ctx, "things", "a"), storage.ErrNoDocument)
	require.ErrorIs(t, conn.Get(ctx, "things", "a", &got), storage.ErrNoDocument)
}

func TestMemoryFactorySharing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := storage.NewMemoryFactory()

	// Two handles from the same factory see the same data.
	c1, err := f.Open(ctx, "1000000001", "")
	require.NoError(t, err)
	c2, err := f.Open(ctx, "1000000001", "postgres://ignored")
	require.NoError(t, err)

	require.NoError(t, c1.Put(ctx, "things", "a", doc{Name: "alpha"}))
	var got doc
	require.NoError(t, c2.Get(ctx, "things", "a", &got))
	assert.Equal(t, "alpha", got.Name)

	// A second factory is a disjoint universe.
	other := storage.NewMemoryFactory()
	c3, err := other.Open(ctx, "1000000001", "")
	require.NoError(t, err)
	require.ErrorIs(t, c3.Get(ctx, "things", "a", &got), storage.ErrNoDocument)
}

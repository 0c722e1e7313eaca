package accounts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdex/pkg/accounts"
	"resdex/pkg/logger"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("get missing account", func(t *testing.T) {
		t.Parallel()
		st := accounts.NewMemoryStore()
		_, err := st.Get(ctx, "1000000001")
		require.ErrorIs(t, err, accounts.ErrNotFound)
	})

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()
		st := accounts.NewMemoryStore()
		a, err := accounts.New("1000000001", "resdex.test")
		require.NoError(t, err)
		require.NoError(t, st.Create(ctx, a, uuid.Nil))

		got, err := st.Get(ctx, "1000000001")
		require.NoError(t, err)
		assert.Equal(t, "1000000001", got.ID())
		assert.Equal(t, "resdex.test", got.Endpoint())
		assert.Len(t, got.Salt(), 16)
		assert.False(t, got.Deleted())
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		t.Parallel()
		st := accounts.NewMemoryStore()
		a, err := accounts.New("1000000001", "resdex.test")
		require.NoError(t, err)
		require.NoError(t, st.Create(ctx, a, uuid.Nil))
		require.ErrorIs(t, st.Create(ctx, a, uuid.Nil), accounts.ErrExists)
	})

	t.Run("soft delete retains the record", func(t *testing.T) {
		t.Parallel()
		st := accounts.NewMemoryStore()
		a, err := accounts.New("1000000001", "resdex.test")
		require.NoError(t, err)
		require.NoError(t, st.Create(ctx, a, uuid.Nil))
		require.NoError(t, st.SoftDelete(ctx, "1000000001", uuid.Nil))

		got, err := st.Get(ctx, "1000000001")
		require.NoError(t, err)
		assert.True(t, got.Deleted())
	})

	t.Run("grants and list", func(t *testing.T) {
		t.Parallel()
		st := accounts.NewMemoryStore()
		user := uuid.New()

		a, err := accounts.New("1000000001", "resdex.test")
		require.NoError(t, err)
		require.NoError(t, st.Create(ctx, a, user))

		ok, err := st.HasAccess(ctx, user, "1000000001")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, st.GrantAccess(ctx, user, "1000000001"))
		ok, err = st.HasAccess(ctx, user, "1000000001")
		require.NoError(t, err)
		assert.True(t, ok)

		list, err := st.List(ctx, user)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "1000000001", list[0].ID())

		// Deleted accounts drop out of listings.
		require.NoError(t, st.SoftDelete(ctx, "1000000001", user))
		list, err = st.List(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestNewAccount(t *testing.T) {
	t.Parallel()

	_, err := accounts.New("", "resdex.test")
	require.Error(t, err)

	a, err := accounts.New("1000000001", "resdex.test")
	require.NoError(t, err)
	b, err := accounts.New("1000000002", "resdex.test")
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt(), b.Salt(), "salts must be random per account")

	// Salt accessor hands out copies.
	s := a.Salt()
	s[0] ^= 0xff
	assert.NotEqual(t, s, a.Salt())
}

func TestSeedFromFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	owner := uuid.New()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - id: "1000000001"
    endpoint: resdex.test
    owner: `+owner.String()+`
  - id: "1000000002"
    endpoint: resdex.test
    storage_url: postgres://other-host/resdex
`), 0o600))

	st := accounts.NewMemoryStore()
	require.NoError(t, accounts.SeedFromFile(ctx, st, path, logger.Nop()))

	a, err := st.Get(ctx, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, "resdex.test", a.Endpoint())

	ok, err := st.HasAccess(ctx, owner, "1000000001")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := st.Get(ctx, "1000000002")
	require.NoError(t, err)
	assert.Equal(t, "postgres://other-host/resdex", b.StorageURL())

	// Re-running the seed leaves existing accounts untouched.
	firstSalt := a.Salt()
	require.NoError(t, accounts.SeedFromFile(ctx, st, path, logger.Nop()))
	again, err := st.Get(ctx, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, firstSalt, again.Salt())
}

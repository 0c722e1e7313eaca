package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"resdex/pkg/config"
	"resdex/pkg/logger"
	"resdex/pkg/storage"
)

func TestBuildFactory(t *testing.T) {
	t.Parallel()
	log := logger.Nop()

	t.Run("bare dev falls back to memory", func(t *testing.T) {
		t.Parallel()
		f, closeFn := buildFactory(config.Config{Env: "dev"}, log)
		defer closeFn()
		require.IsType(t, &storage.MemoryFactory{}, f)

		// The fallback actually serves connections, unlike a pool factory
		// with no endpoint.
		conn, err := f.Open(context.Background(), "1000000001", "")
		require.NoError(t, err)
		require.NoError(t, conn.Ping(context.Background()))
	})

	t.Run("storage url selects pooled factory", func(t *testing.T) {
		t.Parallel()
		f, closeFn := buildFactory(config.Config{StorageURL: "postgres://db/resdex"}, log)
		defer closeFn()
		require.IsType(t, &storage.PoolFactory{}, f)
	})

	t.Run("per-tenant routing selects pooled factory", func(t *testing.T) {
		t.Parallel()
		f, closeFn := buildFactory(config.Config{PerTenantRouting: true}, log)
		defer closeFn()
		require.IsType(t, &storage.PoolFactory{}, f)
	})
}

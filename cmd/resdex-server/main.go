// cmd/resdex-server/main.go
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"resdex/internal/server"
	"resdex/pkg/accounts"
	"resdex/pkg/auth"
	"resdex/pkg/config"
	"resdex/pkg/db"
	"resdex/pkg/logger"
	"resdex/pkg/state"
	"resdex/pkg/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool := db.MustConnect(cfg, log)

	var store accounts.Store
	if pool != nil {
		if err := accounts.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store = accounts.NewPostgresStore(pool, log)
	} else {
		store = accounts.NewMemoryStore()
	}

	if rdb := db.MustRedis(cfg, log); rdb != nil {
		store = accounts.NewCachedStore(store, rdb, cfg.AccountCacheTTL, log)
	}

	if cfg.AccountSeedFile != "" {
		if err := accounts.SeedFromFile(ctx, store, cfg.AccountSeedFile, log); err != nil {
			log.Warnw("seed", "err", err)
		}
	}

	key := cfg.APIPrivateKey
	if key == nil {
		if cfg.Env != "dev" {
			log.Fatalw("API_PRIVATE_KEY is required outside dev")
		}
		key = make([]byte, 16)
		if _, err := rand.Read(key); err != nil {
			log.Fatalw("key gen", "err", err)
		}
		log.Warnw("API_PRIVATE_KEY not set — generated an ephemeral key; report keys will not survive restarts")
	}

	authn, err := auth.NewReportKeyAuthenticator(cfg.Endpoint, key)
	if err != nil {
		log.Fatalw("report key auth", "err", err)
	}

	var users auth.UserAuthenticator = auth.DisabledUserAuthenticator{}
	if cfg.Issuer != "" && cfg.JWKSURL != "" {
		jwtAuth, err := auth.NewJWTAuthenticator(cfg.Issuer, cfg.JWKSURL, cfg.OIDCClientID, cfg.JWKSCacheTTL)
		if err != nil {
			log.Fatalw("jwt auth", "err", err)
		}
		users = jwtAuth
	} else {
		log.Warnw("OIDC_ISSUER/JWKS_URL not set — dashboard endpoints disabled")
	}

	factory, closeFactory := buildFactory(cfg, log)
	defer closeFactory()

	st := state.New(store, factory, authn, users)
	handler := server.New(cfg, log, st, authn)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	go func() {
		log.Infow("resdex-server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	fmt.Println("resdex-server stopped")
}

// buildFactory picks the document-store factory. Pooled Postgres when a
// storage endpoint is configured, or in per-tenant routing mode where every
// account record carries its own; in-memory otherwise, so a bare dev setup
// can still serve report traffic.
func buildFactory(cfg config.Config, log *zap.SugaredLogger) (storage.Factory, func()) {
	if cfg.StorageURL == "" && !cfg.PerTenantRouting {
		log.Warnw("STORAGE_DATABASE_URL not set — using in-memory document store for dev")
		return storage.NewMemoryFactory(), func() {}
	}
	pf := storage.NewPoolFactory(cfg.StorageURL, cfg.PerTenantRouting, log)
	return pf, pf.Close
}

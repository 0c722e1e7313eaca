// pkg/storage/factory.go
package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolFactory is the production Factory. It keeps one shared pgx pool per
// distinct storage endpoint and hands out account-scoped views of it; after
// the first request for an endpoint, Open is a map read plus a struct
// allocation. Pools live for the process lifetime.
type PoolFactory struct {
	defaultURL       string
	perTenantRouting bool
	log              *zap.SugaredLogger

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
}

// NewPoolFactory builds the factory. perTenantRouting corresponds to the
// managed-hosting deployment mode in which every account record must carry
// its own storage endpoint and defaultURL is never consulted.
func NewPoolFactory(defaultURL string, perTenantRouting bool, log *zap.SugaredLogger) *PoolFactory {
	return &PoolFactory{
		defaultURL:       defaultURL,
		perTenantRouting: perTenantRouting,
		log:              log,
		pools:            map[string]*pgxpool.Pool{},
	}
}

func (f *PoolFactory) Open(ctx context.Context, accountID, storageURL string) (Conn, error) {
	url := storageURL
	if url == "" {
		if f.perTenantRouting {
			return nil, ErrNotConfigured
		}
		url = f.defaultURL
	}
	if url == "" {
		return nil, ErrNotConfigured
	}

	pool, err := f.pool(ctx, url)
	if err != nil {
		return nil, err
	}
	return &pgConn{pool: pool, accountID: accountID}, nil
}

func (f *PoolFactory) pool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	f.mu.RLock()
	pool, ok := f.pools[url]
	f.mu.RUnlock()
	if ok {
		return pool, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pool, ok := f.pools[url]; ok {
		return pool, nil
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		f.log.Errorw("storage pool open", "err", err)
		return nil, ErrUnreachable
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		f.log.Errorw("storage pool ping", "err", err)
		return nil, ErrUnreachable
	}
	if err := ensureDocumentSchema(ctx, pool); err != nil {
		pool.Close()
		f.log.Errorw("storage schema", "err", err)
		return nil, ErrUnreachable
	}
	f.pools[url] = pool
	f.log.Infow("storage pool ready", "endpoint", redactDSN(url))
	return pool, nil
}

func redactDSN(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		return "***@" + dsn[i+1:]
	}
	return dsn
}

// Close releases every pool. Called on shutdown.
func (f *PoolFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for url, pool := range f.pools {
		pool.Close()
		delete(f.pools, url)
	}
}

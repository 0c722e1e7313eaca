// pkg/accounts/cache.go
package accounts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore decorates Get with a Redis read-through cache. Every other
// operation delegates straight to the inner store; SoftDelete invalidates.
// Cache failures degrade to the inner store, never to a request failure.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

// cacheRecord is the wire form of an Account inside Redis. Internal to this
// package so the unexported-field boundary holds.
type cacheRecord struct {
	ID         string     `json:"id"`
	Salt       []byte     `json:"salt"`
	Endpoint   string     `json:"endpoint"`
	StorageURL string     `json:"storage_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	DeletedBy  *uuid.UUID `json:"deleted_by,omitempty"`
}

func cacheKey(id string) string { return "resdex:account:" + id }

func (c *CachedStore) Get(ctx context.Context, id string) (Account, error) {
	if raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var rec cacheRecord
		if err := json.Unmarshal(raw, &rec); err == nil {
			return Account{
				id: rec.ID, salt: rec.Salt, endpoint: rec.Endpoint, storageURL: rec.StorageURL,
				createdAt: rec.CreatedAt, createdBy: rec.CreatedBy,
				deletedAt: rec.DeletedAt, deletedBy: rec.DeletedBy,
			}, nil
		}
	}

	a, err := c.inner.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}

	raw, err := json.Marshal(cacheRecord{
		ID: a.id, Salt: a.salt, Endpoint: a.endpoint, StorageURL: a.storageURL,
		CreatedAt: a.createdAt, CreatedBy: a.createdBy,
		DeletedAt: a.deletedAt, DeletedBy: a.deletedBy,
	})
	if err == nil {
		if err := c.rdb.Set(ctx, cacheKey(id), raw, c.ttl).Err(); err != nil {
			c.log.Warnw("account cache set", "account_id", id, "err", err)
		}
	}
	return a, nil
}

func (c *CachedStore) Create(ctx context.Context, a Account, by uuid.UUID) error {
	return c.inner.Create(ctx, a, by)
}

func (c *CachedStore) List(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	return c.inner.List(ctx, userID)
}

func (c *CachedStore) SoftDelete(ctx context.Context, id string, by uuid.UUID) error {
	if err := c.inner.SoftDelete(ctx, id, by); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.log.Warnw("account cache invalidate", "account_id", id, "err", err)
	}
	return nil
}

func (c *CachedStore) GrantAccess(ctx context.Context, userID uuid.UUID, accountID string) error {
	return c.inner.GrantAccess(ctx, userID, accountID)
}

func (c *CachedStore) HasAccess(ctx context.Context, userID uuid.UUID, accountID string) (bool, error) {
	return c.inner.HasAccess(ctx, userID, accountID)
}

// pkg/storage/memory.go
package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryFactory is the test Factory. Every Open returns a handle over the
// same pre-created in-memory store, regardless of account id or routing hint,
// so a test can write through one handle and read through another. Two
// independently constructed factories share nothing.
type MemoryFactory struct {
	store *memStore
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{store: newMemStore()}
}

func (f *MemoryFactory) Open(ctx context.Context, accountID, storageURL string) (Conn, error) {
	return &memConn{store: f.store, accountID: accountID}, nil
}

type memStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // collection -> id -> doc
}

func newMemStore() *memStore {
	return &memStore{data: map[string]map[string][]byte{}}
}

type memConn struct {
	store     *memStore
	accountID string
}

func (c *memConn) AccountID() string { return c.accountID }

func (c *memConn) Put(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	coll, ok := c.store.data[collection]
	if !ok {
		coll = map[string][]byte{}
		c.store.data[collection] = coll
	}
	coll[id] = raw
	return nil
}

func (c *memConn) Get(ctx context.Context, collection, id string, dest any) error {
	c.store.mu.RLock()
	raw, ok := c.store.data[collection][id]
	c.store.mu.RUnlock()
	if !ok {
		return ErrNoDocument
	}
	return json.Unmarshal(raw, dest)
}

func (c *memConn) List(ctx context.Context, collection string, dest any) error {
	c.store.mu.RLock()
	coll := c.store.data[collection]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, coll[id])
	}
	c.store.mu.RUnlock()
	return unmarshalDocs(docs, dest)
}

func (c *memConn) Delete(ctx context.Context, collection, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	coll, ok := c.store.data[collection]
	if !ok {
		return ErrNoDocument
	}
	if _, ok := coll[id]; !ok {
		return ErrNoDocument
	}
	delete(coll, id)
	return nil
}

func (c *memConn) Ping(ctx context.Context) error { return nil }

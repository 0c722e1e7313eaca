// pkg/accounts/memory.go
package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a map-backed Store. It serves two jobs: the dev fallback
// when no DATABASE_URL is configured, and the tenant store for tests. Safe
// for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Account
	grants map[uuid.UUID]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   map[string]Account{},
		grants: map[uuid.UUID]map[string]struct{}{},
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) Create(ctx context.Context, a Account, by uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.id]; ok {
		return ErrExists
	}
	a.createdBy = by
	if a.createdAt.IsZero() {
		a.createdAt = time.Now().UTC()
	}
	m.byID[a.id] = a
	return nil
}

func (m *MemoryStore) List(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Account
	for id := range m.grants[userID] {
		if a, ok := m.byID[id]; ok && !a.Deleted() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) SoftDelete(ctx context.Context, id string, by uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	a.deletedAt = &now
	a.deletedBy = &by
	m.byID[id] = a
	return nil
}

func (m *MemoryStore) GrantAccess(ctx context.Context, userID uuid.UUID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[accountID]; !ok {
		return ErrNotFound
	}
	g, ok := m.grants[userID]
	if !ok {
		g = map[string]struct{}{}
		m.grants[userID] = g
	}
	g[accountID] = struct{}{}
	return nil
}

func (m *MemoryStore) HasAccess(ctx context.Context, userID uuid.UUID, accountID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.grants[userID][accountID]
	return ok, nil
}

// Package storage turns an account id into a usable tenant-scoped data store
// connection. Production connections come from shared pools keyed by storage
// endpoint; tests substitute a single in-memory store via MemoryFactory. The
// choice is made once, when the process state is constructed.
package storage

import (
	"context"
	"errors"
	"fmt"

	"resdex/pkg/problems"
)

var (
	// ErrUnreachable: the storage endpoint could not be dialed or pinged.
	ErrUnreachable = fmt.Errorf("storage unreachable: %w", problems.ErrUnavailable)
	// ErrNotConfigured: the account requires a routing hint that is absent.
	ErrNotConfigured = fmt.Errorf("storage endpoint not configured: %w", problems.ErrUnavailable)
	// ErrNoDocument: point lookup found nothing.
	ErrNoDocument = errors.New("storage: no such document")
)

// Conn is an open handle onto one account's slice of the data store. All
// operations are implicitly scoped to that account; there is no way to reach
// another tenant's rows through a Conn.
type Conn interface {
	AccountID() string
	Put(ctx context.Context, collection, id string, doc any) error
	Get(ctx context.Context, collection, id string, dest any) error
	List(ctx context.Context, collection string, dest any) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
}

// Factory produces a ready Conn for an account. storageURL is the optional
// per-account routing hint; empty selects the deployment default.
type Factory interface {
	Open(ctx context.Context, accountID, storageURL string) (Conn, error)
}

// Package reportkeys manages per-account report keys. Key records live in
// the account's own data store (the "report_keys" collection), so revoking a
// key is a tenant-local write and validation happens against the connection
// the pipeline already holds.
package reportkeys

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"resdex/pkg/auth"
	"resdex/pkg/problems"
	"resdex/pkg/storage"
)

const Collection = "report_keys"

var (
	// ErrNotFound: no key record with that id in this account.
	ErrNotFound = fmt.Errorf("report key not found: %w", problems.ErrNotFound)
	// ErrNotAuthorized: the key exists but was revoked, or never existed for
	// this account. Maps to forbidden: the credential itself verified.
	ErrNotAuthorized = fmt.Errorf("report key not authorized: %w", problems.ErrForbidden)
	// ErrExists: a record with that id already occupies the slot.
	ErrExists = errors.New("report key id already exists")
)

// ReportKey is the stored record for one key. The secret value itself is
// never stored; only the authenticator can mint or verify values.
type ReportKey struct {
	ID          uint32     `json:"id"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	RevokedBy   *uuid.UUID `json:"revoked_by,omitempty"`
}

// Public is the dashboard projection of a key record.
type Public struct {
	ID          uint32    `json:"id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (k ReportKey) Public() Public {
	return Public{ID: k.ID, Description: k.Description, CreatedAt: k.CreatedAt}
}

func (k ReportKey) Revoked() bool { return k.RevokedAt != nil }

// New creates a key record with a random six-digit id.
func New(description string, by uuid.UUID) (ReportKey, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ReportKey{}, err
	}
	span := uint32(auth.MaxKeyID - auth.MinKeyID + 1)
	id := auth.MinKeyID + binary.BigEndian.Uint32(buf[:])%span
	return ReportKey{
		ID:          id,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   by,
	}, nil
}

func docID(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

func Put(ctx context.Context, conn storage.Conn, k ReportKey) error {
	return conn.Put(ctx, Collection, docID(k.ID), k)
}

// Create stores a new key record and refuses to claim an occupied id,
// revoked records included. Overwriting a revoked record would resurrect its
// old secret value: the sealed value is bound to key id, endpoint and salt,
// all of which a same-id replacement shares.
func Create(ctx context.Context, conn storage.Conn, k ReportKey) error {
	_, err := Get(ctx, conn, k.ID)
	if err == nil {
		return ErrExists
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return Put(ctx, conn, k)
}

func Get(ctx context.Context, conn storage.Conn, id uint32) (ReportKey, error) {
	var k ReportKey
	err := conn.Get(ctx, Collection, docID(id), &k)
	if errors.Is(err, storage.ErrNoDocument) {
		return ReportKey{}, ErrNotFound
	}
	if err != nil {
		return ReportKey{}, err
	}
	return k, nil
}

// List returns the account's non-revoked keys.
func List(ctx context.Context, conn storage.Conn) ([]ReportKey, error) {
	var all []ReportKey
	if err := conn.List(ctx, Collection, &all); err != nil {
		return nil, err
	}
	out := all[:0]
	for _, k := range all {
		if !k.Revoked() {
			out = append(out, k)
		}
	}
	return out, nil
}

// Revoke marks a key revoked. Revoking an already-revoked key reports
// ErrNotFound, matching the dashboard's view that it no longer exists.
func Revoke(ctx context.Context, conn storage.Conn, id uint32, by uuid.UUID) error {
	k, err := Get(ctx, conn, id)
	if err != nil {
		return err
	}
	if k.Revoked() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	k.RevokedBy = &by
	return Put(ctx, conn, k)
}

// Validate confirms the key id is still authorized for the account behind
// conn: it must exist and must not be revoked.
func Validate(ctx context.Context, conn storage.Conn, id uint32) error {
	k, err := Get(ctx, conn, id)
	if errors.Is(err, ErrNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	if k.Revoked() {
		return ErrNotAuthorized
	}
	return nil
}

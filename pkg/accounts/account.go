// Package accounts holds the tenant ("account") records and the stores that
// load them. Account fields are unexported on purpose: code outside the
// resolution pipeline sees only the accessor surface, and serialization goes
// through Public.
package accounts

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
)

const saltSize = 16

// Account is a persisted tenant record. The id is immutable once created; a
// set deletedAt means the account is logically gone but retained for audit.
type Account struct {
	id         string
	salt       []byte
	endpoint   string
	storageURL string
	createdAt  time.Time
	createdBy  uuid.UUID
	deletedAt  *time.Time
	deletedBy  *uuid.UUID
}

// New creates an account with a fresh random salt. The salt is generated once
// here and never rotated; report key values are bound to it.
func New(id, endpoint string) (Account, error) {
	if id == "" {
		return Account{}, errors.New("accounts: empty account id")
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return Account{}, err
	}
	return Account{id: id, salt: salt, endpoint: endpoint, createdAt: time.Now().UTC()}, nil
}

func (a Account) ID() string       { return a.id }
func (a Account) Endpoint() string { return a.endpoint }

// StorageURL is the per-account routing override. Empty means the deployment
// default endpoint.
func (a Account) StorageURL() string { return a.storageURL }

// Salt returns a copy of the per-account key-derivation salt.
func (a Account) Salt() []byte {
	out := make([]byte, len(a.salt))
	copy(out, a.salt)
	return out
}

func (a Account) CreatedAt() time.Time { return a.createdAt }
func (a Account) Deleted() bool        { return a.deletedAt != nil }

// WithStorageURL returns a copy routed to the given storage endpoint. Used by
// provisioning in managed-hosting mode before the record is persisted.
func (a Account) WithStorageURL(url string) Account {
	a.storageURL = url
	return a
}

// Public is the externally visible projection of an account.
type Public struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (a Account) Public() Public {
	return Public{ID: a.id, Endpoint: a.endpoint}
}

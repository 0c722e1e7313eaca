// pkg/auth/fixed.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// FixedAuthenticator ignores all header content and always returns the same
// identity. It exists so tests can drive the resolution pipeline without
// minting real report keys; production wiring never constructs one.
type FixedAuthenticator struct {
	identity Identity
}

func NewFixedAuthenticator(accountID string, keyID uint32) *FixedAuthenticator {
	return &FixedAuthenticator{identity: Identity{AccountID: accountID, KeyID: keyID}}
}

func (f *FixedAuthenticator) Authenticate(ctx context.Context, h http.Header) (Identity, error) {
	return f.identity, nil
}

// FixedUserAuthenticator is the dashboard counterpart of FixedAuthenticator.
type FixedUserAuthenticator struct {
	userID uuid.UUID
}

func NewFixedUserAuthenticator(userID uuid.UUID) *FixedUserAuthenticator {
	return &FixedUserAuthenticator{userID: userID}
}

func (f *FixedUserAuthenticator) AuthenticateUser(ctx context.Context, h http.Header) (uuid.UUID, error) {
	return f.userID, nil
}

// DisabledUserAuthenticator rejects every dashboard request. Wired when the
// deployment has no OIDC issuer configured.
type DisabledUserAuthenticator struct{}

func (DisabledUserAuthenticator) AuthenticateUser(ctx context.Context, h http.Header) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("dashboard auth is not configured: %w", ErrInvalid)
}

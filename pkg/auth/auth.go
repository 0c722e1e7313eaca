// Package auth turns request headers into verified identities. It never
// touches the account store; resolving the account an identity points at is
// the pipeline's job, which keeps the two concerns separately testable.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"resdex/pkg/problems"
)

var (
	// ErrMalformed: the credential header is absent or cannot be decoded.
	ErrMalformed = fmt.Errorf("malformed credential: %w", problems.ErrUnauthorized)
	// ErrInvalid: the credential decoded but failed verification.
	ErrInvalid = fmt.Errorf("invalid credential: %w", problems.ErrUnauthorized)
)

// Identity is the verified result of authenticating a report request: which
// account the credential belongs to and which key produced it. Ephemeral,
// never persisted.
type Identity struct {
	AccountID string
	KeyID     uint32
}

// Authenticator verifies agent (report key) credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, h http.Header) (Identity, error)
}

// UserAuthenticator verifies dashboard user credentials and yields the user
// id.
type UserAuthenticator interface {
	AuthenticateUser(ctx context.Context, h http.Header) (uuid.UUID, error)
}

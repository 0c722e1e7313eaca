// pkg/middleware/authctx.go
package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"resdex/pkg/accounts"
	"resdex/pkg/auth"
	"resdex/pkg/storage"
)

// ErrNoAuthedAccount: a handler ran without the resolution pipeline in front
// of it. Unreachable when routes are assembled correctly; kept as defense in
// depth and mapped to an internal error, never to a 4xx.
var ErrNoAuthedAccount = errors.New("no authenticated account in request context")

// AuthedAccount is the per-request bundle handed to handlers: the resolved
// account and an open connection to that account's data store. Both fields
// are always present; the only constructor refuses to build the value
// otherwise, so no "forgot to inject" state can exist.
type AuthedAccount struct {
	account accounts.Account
	conn    storage.Conn
}

func NewAuthedAccount(a accounts.Account, conn storage.Conn) (AuthedAccount, error) {
	if a.ID() == "" {
		return AuthedAccount{}, fmt.Errorf("authed account: empty account")
	}
	if conn == nil {
		return AuthedAccount{}, fmt.Errorf("authed account: nil connection")
	}
	return AuthedAccount{account: a, conn: conn}, nil
}

func (a AuthedAccount) Account() accounts.Account { return a.account }
func (a AuthedAccount) Conn() storage.Conn        { return a.conn }

type ctxAuthedAccountKey struct{}

func withAuthedAccount(ctx context.Context, a AuthedAccount) context.Context {
	return context.WithValue(ctx, ctxAuthedAccountKey{}, a)
}

// AuthedAccountFrom extracts the per-request account bundle. Handlers treat
// an error here as an infrastructure failure.
func AuthedAccountFrom(ctx context.Context) (AuthedAccount, error) {
	v, ok := ctx.Value(ctxAuthedAccountKey{}).(AuthedAccount)
	if !ok {
		return AuthedAccount{}, ErrNoAuthedAccount
	}
	return v, nil
}

type ctxIdentityKey struct{}

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// IdentityFrom returns the verified report-key identity placed by
// Authenticate.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey{}).(auth.Identity)
	return id, ok
}

type ctxUserKey struct{}

func withUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

// UserFrom returns the verified dashboard user id placed by AuthenticateUser.
func UserFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxUserKey{}).(uuid.UUID)
	return id, ok
}

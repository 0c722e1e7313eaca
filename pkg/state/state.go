// Package state bundles the process-wide dependencies every request needs:
// the account store, the storage connection factory and the authenticators.
// Production builds one State at startup; each test builds its own with
// substituted implementations. New is the only construction path; there is
// no environment switch and no ambient global.
package state

import (
	"resdex/pkg/accounts"
	"resdex/pkg/auth"
	"resdex/pkg/storage"
)

// State is immutable after New and safe to share across any number of
// concurrent requests; it is a small value, copied freely.
type State struct {
	accounts accounts.Store
	factory  storage.Factory
	auth     auth.Authenticator
	users    auth.UserAuthenticator
}

func New(store accounts.Store, factory storage.Factory, authn auth.Authenticator, users auth.UserAuthenticator) State {
	return State{accounts: store, factory: factory, auth: authn, users: users}
}

func (s State) Accounts() accounts.Store      { return s.accounts }
func (s State) Factory() storage.Factory      { return s.factory }
func (s State) Auth() auth.Authenticator      { return s.auth }
func (s State) Users() auth.UserAuthenticator { return s.users }

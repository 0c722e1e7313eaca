// pkg/middleware/resolve.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"resdex/pkg/accounts"
	"resdex/pkg/problems"
	"resdex/pkg/reportkeys"
	"resdex/pkg/state"
)

// ResolveAccount is the account resolution stage for report traffic. It
// consumes the identity placed by Authenticate and walks the request through
// account lookup, connection acquisition and key authorization; any failure
// rejects the request before a partial context can be forwarded.
func ResolveAccount(st state.State, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := IdentityFrom(ctx)
			if !ok {
				// Assembly bug: resolution ran without authentication.
				log.Errorw("account resolution without identity", "path", r.URL.Path)
				problems.WriteError(w, ErrNoAuthedAccount)
				return
			}

			account, err := st.Accounts().Get(ctx, id.AccountID)
			if err != nil {
				logLookupFailure(log, err, id.AccountID)
				problems.WriteError(w, err)
				return
			}
			if account.Deleted() {
				log.Warnw("account is deleted", "account_id", id.AccountID)
				problems.WriteError(w, accounts.ErrDeleted)
				return
			}

			conn, err := st.Factory().Open(ctx, account.ID(), account.StorageURL())
			if err != nil {
				log.Errorw("storage connection failed", "account_id", account.ID(), "step", "connect", "err", err)
				problems.WriteError(w, err)
				return
			}

			if err := reportkeys.Validate(ctx, conn, id.KeyID); err != nil {
				log.Warnw("report key not authorized", "request_id", RequestIDFrom(ctx), "account_id", account.ID(), "key_id", id.KeyID, "err", err)
				problems.WriteError(w, err)
				return
			}

			authed, err := NewAuthedAccount(account, conn)
			if err != nil {
				log.Errorw("authed account construction", "account_id", account.ID(), "err", err)
				problems.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuthedAccount(ctx, authed)))
		})
	}
}

// ResolveAccountFromPath is the dashboard counterpart: the account id comes
// from the {accountID} route parameter and authorization is the caller's
// access grant rather than a report key.
func ResolveAccountFromPath(st state.State, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := UserFrom(ctx)
			if !ok {
				log.Errorw("account resolution without user", "path", r.URL.Path)
				problems.WriteError(w, ErrNoAuthedAccount)
				return
			}

			accountID := chi.URLParam(r, "accountID")
			if accountID == "" {
				problems.WriteError(w, accounts.ErrNotFound)
				return
			}

			allowed, err := st.Accounts().HasAccess(ctx, userID, accountID)
			if err != nil {
				log.Errorw("account access check failed", "account_id", accountID, "step", "access", "err", err)
				problems.WriteError(w, err)
				return
			}
			if !allowed {
				log.Warnw("user has no access to account", "request_id", RequestIDFrom(ctx), "account_id", accountID, "user_id", userID)
				problems.WriteError(w, problems.ErrForbidden)
				return
			}

			account, err := st.Accounts().Get(ctx, accountID)
			if err != nil {
				logLookupFailure(log, err, accountID)
				problems.WriteError(w, err)
				return
			}
			if account.Deleted() {
				log.Warnw("account is deleted", "account_id", accountID)
				problems.WriteError(w, accounts.ErrDeleted)
				return
			}

			conn, err := st.Factory().Open(ctx, account.ID(), account.StorageURL())
			if err != nil {
				log.Errorw("storage connection failed", "account_id", account.ID(), "step", "connect", "err", err)
				problems.WriteError(w, err)
				return
			}

			authed, err := NewAuthedAccount(account, conn)
			if err != nil {
				log.Errorw("authed account construction", "account_id", account.ID(), "err", err)
				problems.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuthedAccount(ctx, authed)))
		})
	}
}

func logLookupFailure(log *zap.SugaredLogger, err error, accountID string) {
	if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrDeleted) {
		log.Warnw("account not found", "account_id", accountID)
		return
	}
	log.Errorw("account lookup failed", "account_id", accountID, "step", "lookup", "err", err)
}

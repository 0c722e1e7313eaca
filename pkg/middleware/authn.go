// pkg/middleware/authn.go
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"resdex/pkg/problems"
	"resdex/pkg/state"
)

// Authenticate verifies the report-key credential and stores the resulting
// identity in the request context. It runs strictly before ResolveAccount in
// every assembled pipeline; nothing here touches the account store.
func Authenticate(st state.State, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := st.Auth().Authenticate(r.Context(), r.Header)
			if err != nil {
				log.Warnw("report key authentication failed", "request_id", RequestIDFrom(r.Context()), "err", err)
				problems.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// AuthenticateUser verifies the dashboard credential and stores the user id
// in the request context.
func AuthenticateUser(st state.State, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := st.Users().AuthenticateUser(r.Context(), r.Header)
			if err != nil {
				log.Warnw("user authentication failed", "request_id", RequestIDFrom(r.Context()), "err", err)
				problems.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
		})
	}
}

// internal/server/server.go
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"resdex/internal/adminapi"
	"resdex/internal/report"
	"resdex/pkg/auth"
	"resdex/pkg/config"
	"resdex/pkg/middleware"
	"resdex/pkg/state"
)

// New assembles the full request pipeline around one process state. This is
// the only place composition order exists: authentication middleware always
// precedes account resolution, so no account store access can happen on
// behalf of an unauthenticated request.
func New(cfg config.Config, log *zap.SugaredLogger, st state.State, minter *auth.ReportKeyAuthenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.Tracing())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Agent pipeline: report key auth, then account resolution.
	r.Group(func(g chi.Router) {
		g.Use(middleware.Authenticate(st, log))
		g.Use(middleware.ResolveAccount(st, log))
		report.RegisterRoutes(g, log)
	})

	// Dashboard pipeline: user auth, then (for account-scoped routes)
	// access-checked account resolution from the URL.
	r.Group(func(g chi.Router) {
		g.Use(middleware.AuthenticateUser(st, log))
		adminapi.RegisterAccountRoutes(g, cfg, log, st)
		g.Route("/v1/accounts/{accountID}", func(ar chi.Router) {
			ar.Use(middleware.ResolveAccountFromPath(st, log))
			adminapi.RegisterReportKeyRoutes(ar, log, minter)
		})
	})

	return r
}

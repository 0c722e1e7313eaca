// internal/report/handler.go
package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"resdex/pkg/middleware"
	"resdex/pkg/problems"
)

// RegisterRoutes mounts the report ingest endpoint. The router passed in is
// already behind Authenticate + ResolveAccount.
func RegisterRoutes(r chi.Router, log *zap.SugaredLogger) {
	r.Post("/v1/report", func(w http.ResponseWriter, req *http.Request) {
		authed, err := middleware.AuthedAccountFrom(req.Context())
		if err != nil {
			log.Errorw("report handler without authed account", "err", err)
			problems.WriteError(w, err)
			return
		}

		dec := json.NewDecoder(req.Body)
		dec.DisallowUnknownFields()
		var rep Report
		if err := dec.Decode(&rep); err != nil {
			problems.Write(w, problems.Problem{
				Type:   problems.Type("bad-request"),
				Title:  "Invalid Report",
				Status: http.StatusBadRequest,
				Detail: "request body is not a valid report",
			})
			return
		}

		n, err := Ingest(req.Context(), authed.Conn(), rep)
		if err != nil {
			if errors.Is(err, ErrBadPayload) {
				problems.Write(w, problems.Problem{
					Type:   problems.Type("bad-request"),
					Title:  "Invalid Report",
					Status: http.StatusBadRequest,
					Detail: err.Error(),
				})
				return
			}
			log.Errorw("report ingest failed", "account_id", authed.Account().ID(), "err", err)
			problems.WriteError(w, err)
			return
		}

		log.Infow("report ingested", "account_id", authed.Account().ID(), "resources", n)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"resources": n})
	})
}

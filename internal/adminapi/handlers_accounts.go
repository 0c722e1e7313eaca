// internal/adminapi/handlers_accounts.go
package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"resdex/pkg/accounts"
	"resdex/pkg/config"
	"resdex/pkg/middleware"
	"resdex/pkg/problems"
	"resdex/pkg/state"
)

// Account ids are ten-digit numeric strings; report keys embed them as such.
var accountIDPattern = regexp.MustCompile(`^[1-9][0-9]{9}$`)

type listAccountsResponse struct {
	Accounts []accounts.Public `json:"accounts"`
}

type createAccountRequest struct {
	AccountID  string `json:"account_id"`
	StorageURL string `json:"storage_url,omitempty"`
}

// RegisterAccountRoutes mounts the account provisioning endpoints. The
// router is already behind AuthenticateUser.
func RegisterAccountRoutes(r chi.Router, cfg config.Config, log *zap.SugaredLogger, st state.State) {
	r.Get("/v1/accounts", func(w http.ResponseWriter, req *http.Request) {
		userID, ok := middleware.UserFrom(req.Context())
		if !ok {
			problems.WriteError(w, middleware.ErrNoAuthedAccount)
			return
		}
		list, err := st.Accounts().List(req.Context(), userID)
		if err != nil {
			log.Errorw("account list failed", "user_id", userID, "err", err)
			problems.WriteError(w, err)
			return
		}
		resp := listAccountsResponse{Accounts: []accounts.Public{}}
		for _, a := range list {
			resp.Accounts = append(resp.Accounts, a.Public())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Post("/v1/accounts", func(w http.ResponseWriter, req *http.Request) {
		userID, ok := middleware.UserFrom(req.Context())
		if !ok {
			problems.WriteError(w, middleware.ErrNoAuthedAccount)
			return
		}

		var body createAccountRequest
		dec := json.NewDecoder(req.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil || !accountIDPattern.MatchString(body.AccountID) {
			badRequest(w, "account_id must be a ten-digit numeric string")
			return
		}
		if cfg.PerTenantRouting && body.StorageURL == "" {
			badRequest(w, "storage_url is required in per-tenant routing mode")
			return
		}

		a, err := accounts.New(body.AccountID, cfg.Endpoint)
		if err != nil {
			problems.WriteError(w, err)
			return
		}
		if body.StorageURL != "" {
			a = a.WithStorageURL(body.StorageURL)
		}

		if err := st.Accounts().Create(req.Context(), a, userID); err != nil {
			if errors.Is(err, accounts.ErrExists) {
				problems.Write(w, problems.Problem{
					Type:   problems.Type("conflict"),
					Title:  "Account Exists",
					Status: http.StatusConflict,
				})
				return
			}
			log.Errorw("account create failed", "account_id", body.AccountID, "err", err)
			problems.WriteError(w, err)
			return
		}
		if err := st.Accounts().GrantAccess(req.Context(), userID, a.ID()); err != nil {
			log.Errorw("account grant failed", "account_id", a.ID(), "err", err)
			problems.WriteError(w, err)
			return
		}

		log.Infow("account created", "account_id", a.ID(), "user_id", userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a.Public())
	})
}

func badRequest(w http.ResponseWriter, detail string) {
	problems.Write(w, problems.Problem{
		Type:   problems.Type("bad-request"),
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}

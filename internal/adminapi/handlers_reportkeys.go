// internal/adminapi/handlers_reportkeys.go
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"resdex/pkg/auth"
	"resdex/pkg/middleware"
	"resdex/pkg/problems"
	"resdex/pkg/reportkeys"
	"resdex/pkg/storage"
)

type listReportKeysResponse struct {
	ReportKeys []reportkeys.Public `json:"report_keys"`
}

type createReportKeyRequest struct {
	Description string `json:"description,omitempty"`
}

type createReportKeyResponse struct {
	ReportKey reportkeys.Public `json:"report_key"`
	// The minted secret, shown exactly once.
	ReportKeyValue string `json:"report_key_value"`
}

const mintAttempts = 5

// RegisterReportKeyRoutes mounts key management under one account. The
// router is already behind AuthenticateUser + ResolveAccountFromPath, so the
// authed account bundle is present. minter seals new key values; it shares
// the cipher with the production authenticator.
func RegisterReportKeyRoutes(r chi.Router, log *zap.SugaredLogger, minter *auth.ReportKeyAuthenticator) {
	r.Get("/report-keys", func(w http.ResponseWriter, req *http.Request) {
		authed, err := middleware.AuthedAccountFrom(req.Context())
		if err != nil {
			problems.WriteError(w, err)
			return
		}
		keys, err := reportkeys.List(req.Context(), authed.Conn())
		if err != nil {
			log.Errorw("report key list failed", "account_id", authed.Account().ID(), "err", err)
			problems.WriteError(w, err)
			return
		}
		resp := listReportKeysResponse{ReportKeys: []reportkeys.Public{}}
		for _, k := range keys {
			resp.ReportKeys = append(resp.ReportKeys, k.Public())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Post("/report-keys", func(w http.ResponseWriter, req *http.Request) {
		authed, err := middleware.AuthedAccountFrom(req.Context())
		if err != nil {
			problems.WriteError(w, err)
			return
		}
		userID, _ := middleware.UserFrom(req.Context())

		var body createReportKeyRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			badRequest(w, "request body is not a valid key request")
			return
		}

		key, err := mintKey(req.Context(), authed.Conn(), body.Description, userID)
		if err != nil {
			log.Errorw("report key store failed", "account_id", authed.Account().ID(), "err", err)
			problems.WriteError(w, err)
			return
		}
		value, err := minter.GenerateValue(key.ID, authed.Account().ID(), authed.Account().Salt())
		if err != nil {
			log.Errorw("report key mint failed", "account_id", authed.Account().ID(), "err", err)
			problems.WriteError(w, err)
			return
		}

		log.Infow("report key created", "account_id", authed.Account().ID(), "key_id", key.ID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createReportKeyResponse{
			ReportKey:      key.Public(),
			ReportKeyValue: value,
		})
	})

	r.Delete("/report-keys/{keyID}", func(w http.ResponseWriter, req *http.Request) {
		authed, err := middleware.AuthedAccountFrom(req.Context())
		if err != nil {
			problems.WriteError(w, err)
			return
		}
		userID, _ := middleware.UserFrom(req.Context())

		keyID64, err := strconv.ParseUint(chi.URLParam(req, "keyID"), 10, 32)
		if err != nil {
			badRequest(w, "key id must be numeric")
			return
		}

		if err := reportkeys.Revoke(req.Context(), authed.Conn(), uint32(keyID64), userID); err != nil {
			problems.WriteError(w, err)
			return
		}
		log.Infow("report key revoked", "account_id", authed.Account().ID(), "key_id", keyID64)
		w.WriteHeader(http.StatusNoContent)
	})
}

// mintKey draws random ids until one is free. Ids already in use, revoked
// ones included, are never reclaimed: a replacement record with the same id
// would revalidate the old sealed value, which is bound to key id, endpoint
// and account salt only.
func mintKey(ctx context.Context, conn storage.Conn, description string, by uuid.UUID) (reportkeys.ReportKey, error) {
	for attempt := 0; attempt < mintAttempts; attempt++ {
		key, err := reportkeys.New(description, by)
		if err != nil {
			return reportkeys.ReportKey{}, err
		}
		err = reportkeys.Create(ctx, conn, key)
		if errors.Is(err, reportkeys.ErrExists) {
			continue
		}
		if err != nil {
			return reportkeys.ReportKey{}, err
		}
		return key, nil
	}
	return reportkeys.ReportKey{}, errors.New("adminapi: report key id space exhausted")
}

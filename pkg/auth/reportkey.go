// pkg/auth/reportkey.go
package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	reportKeyPrefix  = "resdex_report_key_"
	reportKeyVersion = 1

	// Key ids are six digits; account ids are ten-digit numeric strings.
	MinKeyID     = 100000
	MaxKeyID     = 999999
	minAccountID = 1000000000
)

// envelope is the base64-encoded body of a report key value. The salt rides
// along in cleartext so the key can be verified without an account lookup;
// tampering with it breaks the AAD binding below.
type envelope struct {
	Version  int    `json:"v"`
	Endpoint string `json:"endpoint"`
	Salt     []byte `json:"salt"`
	Nonce    []byte `json:"nonce"`
	CT       []byte `json:"ct"`
}

// aad binds the ciphertext to the key id, endpoint and account salt. Struct
// field order fixes the JSON byte layout on both sides.
type aad struct {
	KeyID    uint32 `json:"key_id"`
	Endpoint string `json:"endpoint"`
	Salt     []byte `json:"salt"`
}

// ReportKeyAuthenticator is the production Authenticator. A report key value
// looks like
//
//	resdex_report_key_<key_id>_<base64(envelope)>
//
// where the envelope carries an AES-128-GCM ciphertext of the account id,
// sealed under the service private key with the key id, endpoint and account
// salt as additional authenticated data. Verifying a value proves it was
// minted by this service for this endpoint; whether the key is still
// authorized is checked later, against the account's own data store.
type ReportKeyAuthenticator struct {
	endpoint string
	aead     cipher.AEAD
}

func NewReportKeyAuthenticator(endpoint string, privateKey []byte) (*ReportKeyAuthenticator, error) {
	if endpoint == "" {
		return nil, errors.New("auth: empty endpoint")
	}
	block, err := aes.NewCipher(privateKey)
	if err != nil {
		return nil, fmt.Errorf("auth: report key cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("auth: report key aead: %w", err)
	}
	return &ReportKeyAuthenticator{endpoint: endpoint, aead: aead}, nil
}

func (a *ReportKeyAuthenticator) Authenticate(ctx context.Context, h http.Header) (Identity, error) {
	value := h.Get("Authorization")
	if value == "" {
		return Identity{}, fmt.Errorf("missing Authorization header: %w", ErrMalformed)
	}
	return a.ValidateValue(value)
}

// ValidateValue checks a report key value and returns the account and key ids
// it was minted for. The caller must still confirm the key exists for the
// account and has not been revoked.
func (a *ReportKeyAuthenticator) ValidateValue(value string) (Identity, error) {
	rest, ok := strings.CutPrefix(value, reportKeyPrefix)
	if !ok {
		return Identity{}, fmt.Errorf("missing report key prefix: %w", ErrMalformed)
	}

	idPart, b64Part, ok := strings.Cut(rest, "_")
	if !ok {
		return Identity{}, fmt.Errorf("report key value has no body: %w", ErrMalformed)
	}

	keyID64, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("report key id is not a number: %w", ErrMalformed)
	}
	keyID := uint32(keyID64)
	if keyID < MinKeyID || keyID > MaxKeyID {
		return Identity{}, fmt.Errorf("report key id out of range: %w", ErrMalformed)
	}

	raw, err := base64.StdEncoding.DecodeString(b64Part)
	if err != nil {
		return Identity{}, fmt.Errorf("report key body is not base64: %w", ErrMalformed)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Identity{}, fmt.Errorf("report key body does not decode: %w", ErrMalformed)
	}
	if env.Version != reportKeyVersion {
		return Identity{}, fmt.Errorf("unsupported report key version %d: %w", env.Version, ErrInvalid)
	}
	if env.Endpoint != a.endpoint {
		return Identity{}, fmt.Errorf("report key endpoint mismatch: %w", ErrInvalid)
	}
	if len(env.Salt) != 16 {
		return Identity{}, fmt.Errorf("report key salt is not 16 bytes: %w", ErrInvalid)
	}
	if len(env.Nonce) != a.aead.NonceSize() {
		return Identity{}, fmt.Errorf("report key nonce size: %w", ErrInvalid)
	}

	aadRaw, err := json.Marshal(aad{KeyID: keyID, Endpoint: env.Endpoint, Salt: env.Salt})
	if err != nil {
		return Identity{}, err
	}
	plain, err := a.aead.Open(nil, env.Nonce, env.CT, aadRaw)
	if err != nil {
		return Identity{}, fmt.Errorf("report key does not authenticate: %w", ErrInvalid)
	}

	accountID := string(plain)
	n, err := strconv.ParseUint(accountID, 10, 64)
	if err != nil || n < minAccountID {
		return Identity{}, fmt.Errorf("report key account id out of range: %w", ErrInvalid)
	}

	return Identity{AccountID: accountID, KeyID: keyID}, nil
}

// GenerateValue mints a report key value for an account. Used by key
// provisioning; the value is shown to the caller exactly once.
func (a *ReportKeyAuthenticator) GenerateValue(keyID uint32, accountID string, salt []byte) (string, error) {
	if keyID < MinKeyID || keyID > MaxKeyID {
		return "", fmt.Errorf("auth: key id %d out of range", keyID)
	}
	if len(salt) != 16 {
		return "", errors.New("auth: account salt must be 16 bytes")
	}

	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	aadRaw, err := json.Marshal(aad{KeyID: keyID, Endpoint: a.endpoint, Salt: salt})
	if err != nil {
		return "", err
	}
	ct := a.aead.Seal(nil, nonce, []byte(accountID), aadRaw)

	raw, err := json.Marshal(envelope{
		Version:  reportKeyVersion,
		Endpoint: a.endpoint,
		Salt:     salt,
		Nonce:    nonce,
		CT:       ct,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d_%s", reportKeyPrefix, keyID, base64.StdEncoding.EncodeToString(raw)), nil
}

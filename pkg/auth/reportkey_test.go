package auth_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdex/pkg/auth"
)

var testKey = bytes.Repeat([]byte{0x42}, 16)

func newTestAuthenticator(t *testing.T, endpoint string) *auth.ReportKeyAuthenticator {
	t.Helper()
	a, err := auth.NewReportKeyAuthenticator(endpoint, testKey)
	require.NoError(t, err)
	return a
}

func testSalt() []byte { return bytes.Repeat([]byte{0x07}, 16) }

func TestNewReportKeyAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("rejects short key", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewReportKeyAuthenticator("resdex.test", []byte("short"))
		require.Error(t, err)
	})

	t.Run("rejects empty endpoint", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewReportKeyAuthenticator("", testKey)
		require.Error(t, err)
	})
}

func TestReportKeyRoundTrip(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, "resdex.test")

	value, err := a.GenerateValue(123456, "1000000001", testSalt())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(value, "resdex_report_key_123456_"))

	id, err := a.ValidateValue(value)
	require.NoError(t, err)
	assert.Equal(t, "1000000001", id.AccountID)
	assert.Equal(t, uint32(123456), id.KeyID)
}

func TestReportKeyMalformed(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, "resdex.test")

	for name, value := range map[string]string{
		"no prefix":          "not_a_report_key",
		"no body":            "resdex_report_key_123456",
		"key id not numeric": "resdex_report_key_abcdef_Zm9v",
		"key id too small":   "resdex_report_key_99999_Zm9v",
		"key id too large":   "resdex_report_key_1000000_Zm9v",
		"body not base64":    "resdex_report_key_123456_%%%",
		"body not json":      "resdex_report_key_123456_Zm9v",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.ValidateValue(value)
			require.ErrorIs(t, err, auth.ErrMalformed)
		})
	}
}

func TestReportKeyInvalid(t *testing.T) {
	t.Parallel()

	t.Run("endpoint mismatch", func(t *testing.T) {
		t.Parallel()
		minter := newTestAuthenticator(t, "other.endpoint")
		verifier := newTestAuthenticator(t, "resdex.test")

		value, err := minter.GenerateValue(123456, "1000000001", testSalt())
		require.NoError(t, err)

		_, err = verifier.ValidateValue(value)
		require.ErrorIs(t, err, auth.ErrInvalid)
	})

	t.Run("wrong private key", func(t *testing.T) {
		t.Parallel()
		minter := newTestAuthenticator(t, "resdex.test")
		verifier, err := auth.NewReportKeyAuthenticator("resdex.test", bytes.Repeat([]byte{0x99}, 16))
		require.NoError(t, err)

		value, err := minter.GenerateValue(123456, "1000000001", testSalt())
		require.NoError(t, err)

		_, err = verifier.ValidateValue(value)
		require.ErrorIs(t, err, auth.ErrInvalid)
	})

	t.Run("tampered key id", func(t *testing.T) {
		t.Parallel()
		a := newTestAuthenticator(t, "resdex.test")

		value, err := a.GenerateValue(123456, "1000000001", testSalt())
		require.NoError(t, err)

		// Swapping the cleartext key id must break the AAD binding.
		tampered := strings.Replace(value, "_123456_", "_654321_", 1)
		_, err = a.ValidateValue(tampered)
		require.ErrorIs(t, err, auth.ErrInvalid)
	})

	t.Run("account id below range", func(t *testing.T) {
		t.Parallel()
		a := newTestAuthenticator(t, "resdex.test")

		value, err := a.GenerateValue(123456, "12345", testSalt())
		require.NoError(t, err)

		_, err = a.ValidateValue(value)
		require.ErrorIs(t, err, auth.ErrInvalid)
	})
}

func TestReportKeyAuthenticate(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, "resdex.test")

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		_, err := a.Authenticate(context.Background(), http.Header{})
		require.ErrorIs(t, err, auth.ErrMalformed)
	})

	t.Run("valid header", func(t *testing.T) {
		t.Parallel()
		value, err := a.GenerateValue(123456, "1000000001", testSalt())
		require.NoError(t, err)

		h := http.Header{}
		h.Set("Authorization", value)
		id, err := a.Authenticate(context.Background(), h)
		require.NoError(t, err)
		assert.Equal(t, "1000000001", id.AccountID)
	})
}

func TestGenerateValueArguments(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, "resdex.test")

	_, err := a.GenerateValue(99, "1000000001", testSalt())
	require.Error(t, err)

	_, err = a.GenerateValue(123456, "1000000001", []byte("short"))
	require.Error(t, err)
}

func TestFixedAuthenticator(t *testing.T) {
	t.Parallel()

	f := auth.NewFixedAuthenticator("T1", 1)
	id, err := f.Authenticate(context.Background(), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{AccountID: "T1", KeyID: 1}, id)

	// Header content is irrelevant.
	h := http.Header{}
	h.Set("Authorization", "garbage")
	id, err = f.Authenticate(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "T1", id.AccountID)
}

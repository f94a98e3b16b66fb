package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

type fakeProviderAPI struct {
	loginStatus int
	loginBody   string

	lastAuth     string
	lastSignBody map[string]any
}

func (f *fakeProviderAPI) handler(w http.ResponseWriter, r *http.Request) {
	f.lastAuth = r.Header.Get("Authorization")
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/v1/auth/login/email_otp":
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
		}
		w.Write([]byte(f.loginBody))
	case "/v1/user/logged_in":
		if f.lastAuth == "Bearer valid-token" {
			w.Write([]byte(`{"logged_in":true}`))
		} else {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error_code":"unauthorized","message":"bad token"}`))
		}
	case "/v1/user/info":
		w.Write([]byte(`{"public_address":"ABCXYZ","email":"user@example.com"}`))
	case "/v1/transaction/sign":
		json.NewDecoder(r.Body).Decode(&f.lastSignBody)
		w.Write([]byte(`{"raw_transaction":"c2lnbmVk"}`))
	case "/v1/auth/logout":
		w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestProvider(t *testing.T) (*HTTPProvider, *fakeProviderAPI) {
	t.Helper()

	api := &fakeProviderAPI{loginBody: `{"token":"valid-token"}`}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	return NewHTTPProvider(srv.URL, "pk_test_123", zap.NewNop()), api
}

func TestLoginWithEmailOTPCachesToken(t *testing.T) {
	p, _ := newTestProvider(t)

	token, err := p.LoginWithEmailOTP(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "valid-token", token)

	loggedIn, err := p.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.True(t, loggedIn)
}

func TestLoginMapsRecognizedErrorCodes(t *testing.T) {
	cases := map[string]core.ProviderErrorCode{
		"failed_verification": core.ProviderCodeFailedVerification,
		"link_expired":        core.ProviderCodeLinkExpired,
		"rate_limited":        core.ProviderCodeRateLimited,
		"already_logged_in":   core.ProviderCodeAlreadyLoggedIn,
	}

	for apiCode, want := range cases {
		t.Run(apiCode, func(t *testing.T) {
			p, api := newTestProvider(t)
			api.loginStatus = http.StatusUnprocessableEntity
			api.loginBody = `{"error_code":"` + apiCode + `","message":"provider message"}`

			_, err := p.LoginWithEmailOTP(context.Background(), "user@example.com")
			require.Error(t, err)

			var perr *core.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, want, perr.Code)
			assert.Equal(t, "provider message", perr.Message)
			assert.True(t, perr.Recognized())
		})
	}
}

func TestLoginMapsUnrecognizedErrorsToUnknown(t *testing.T) {
	p, api := newTestProvider(t)
	api.loginStatus = http.StatusInternalServerError
	api.loginBody = `{"error_code":"brand_new_code","message":"?"}`

	_, err := p.LoginWithEmailOTP(context.Background(), "user@example.com")
	require.Error(t, err)

	var perr *core.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.ProviderCodeUnknown, perr.Code)
	assert.False(t, perr.Recognized())
}

func TestLoginRejectsEmptyTokenResponse(t *testing.T) {
	p, api := newTestProvider(t)
	api.loginBody = `{"token":""}`

	_, err := p.LoginWithEmailOTP(context.Background(), "user@example.com")
	var perr *core.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.ProviderCodeUnknown, perr.Code)
}

func TestIsLoggedInWithoutToken(t *testing.T) {
	p, api := newTestProvider(t)

	loggedIn, err := p.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)
	assert.Empty(t, api.lastAuth, "no request may be sent without a token")
}

func TestIsLoggedInWithRejectedToken(t *testing.T) {
	p, _ := newTestProvider(t)
	p.SetSessionToken("stale-token")

	loggedIn, err := p.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestGetInfo(t *testing.T) {
	p, _ := newTestProvider(t)
	p.SetSessionToken("valid-token")

	account, err := p.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCXYZ", account.PublicAddress)
	assert.Equal(t, "user@example.com", account.Email)
}

func TestSignTransactionSendsOptions(t *testing.T) {
	p, api := newTestProvider(t)
	p.SetSessionToken("valid-token")

	signed, err := p.SignTransaction(context.Background(), &core.TransferRequest{
		From:            "ABCXYZ",
		To:              "RECIPIENT",
		Lamports:        10_000_000,
		RecentBlockhash: "recent-hash",
	}, ports.SignOptions{RequireAllSignatures: false, VerifySignatures: true})
	require.NoError(t, err)
	assert.Equal(t, "c2lnbmVk", signed.RawTransaction)

	assert.Equal(t, "ABCXYZ", api.lastSignBody["from"])
	assert.Equal(t, "RECIPIENT", api.lastSignBody["to"])
	assert.Equal(t, float64(10_000_000), api.lastSignBody["lamports"])
	assert.Equal(t, "recent-hash", api.lastSignBody["recent_blockhash"])
	assert.Equal(t, false, api.lastSignBody["require_all_signatures"])
	assert.Equal(t, true, api.lastSignBody["verify_signatures"])
}

func TestLogoutDropsToken(t *testing.T) {
	p, _ := newTestProvider(t)
	p.SetSessionToken("valid-token")

	require.NoError(t, p.Logout(context.Background()))

	loggedIn, err := p.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

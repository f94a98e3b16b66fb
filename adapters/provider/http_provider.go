package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

// OTP logins block while the user completes the challenge out of band,
// so this adapter tolerates much slower responses than a plain API call.
const loginTimeout = 5 * time.Minute

// HTTPProvider is a REST client for the embedded-wallet provider. It
// caches the provider session token after a successful login; the token
// can be restored from the session store at startup with
// SetSessionToken.
type HTTPProvider struct {
	http   *resty.Client
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPProvider creates a provider client for the base URL,
// authenticating with the publishable API key.
func NewHTTPProvider(baseURL, apiKey string, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("X-API-Key", apiKey).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

var _ ports.WalletProvider = (*HTTPProvider)(nil)

// SetSessionToken restores a previously persisted provider session
// token.
func (p *HTTPProvider) SetSessionToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

func (p *HTTPProvider) sessionToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

type providerErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// asProviderError maps a provider error payload onto the tagged
// variants. Unrecognized codes and malformed payloads become
// ProviderCodeUnknown so no error shape is silently dropped.
func asProviderError(body *providerErrorBody) *core.ProviderError {
	if body == nil {
		return &core.ProviderError{Code: core.ProviderCodeUnknown}
	}

	code := core.ProviderCodeUnknown
	switch body.ErrorCode {
	case "failed_verification":
		code = core.ProviderCodeFailedVerification
	case "link_expired":
		code = core.ProviderCodeLinkExpired
	case "rate_limited":
		code = core.ProviderCodeRateLimited
	case "already_logged_in":
		code = core.ProviderCodeAlreadyLoggedIn
	}

	return &core.ProviderError{Code: code, Message: body.Message}
}

// LoginWithEmailOTP starts the OTP challenge for the email and blocks
// until the provider reports the challenge completed. The returned
// token is cached for subsequent calls.
func (p *HTTPProvider) LoginWithEmailOTP(ctx context.Context, email string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	var errBody providerErrorBody

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetResult(&result).
		SetError(&errBody).
		Post("/v1/auth/login/email_otp")
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}

	if resp.IsError() {
		return "", asProviderError(&errBody)
	}

	if result.Token == "" {
		return "", &core.ProviderError{Code: core.ProviderCodeUnknown, Message: "empty token in login response"}
	}

	p.SetSessionToken(result.Token)
	return result.Token, nil
}

// IsLoggedIn reports whether the provider still honors the cached
// session token. A missing token or a rejected one both report false.
func (p *HTTPProvider) IsLoggedIn(ctx context.Context) (bool, error) {
	token := p.sessionToken()
	if token == "" {
		return false, nil
	}

	var result struct {
		LoggedIn bool `json:"logged_in"`
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&result).
		Get("/v1/user/logged_in")
	if err != nil {
		return false, fmt.Errorf("logged_in request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return false, nil
	}

	if resp.IsError() {
		return false, fmt.Errorf("logged_in returned status %s", resp.Status())
	}

	return result.LoggedIn, nil
}

// GetInfo returns the account metadata for the logged-in user.
func (p *HTTPProvider) GetInfo(ctx context.Context) (*core.Account, error) {
	var result struct {
		PublicAddress string `json:"public_address"`
		Email         string `json:"email"`
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(p.sessionToken()).
		SetResult(&result).
		Get("/v1/user/info")
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("user info returned status %s", resp.Status())
	}

	return &core.Account{
		PublicAddress: result.PublicAddress,
		Email:         result.Email,
	}, nil
}

// SignTransaction asks the provider's custodial signer to sign the
// transfer and returns the base64 wire transaction.
func (p *HTTPProvider) SignTransaction(ctx context.Context, req *core.TransferRequest, opts ports.SignOptions) (*ports.SignedTransaction, error) {
	var result struct {
		RawTransaction string `json:"raw_transaction"`
	}

	body := map[string]any{
		"from":                   req.From,
		"to":                     req.To,
		"lamports":               req.Lamports,
		"recent_blockhash":       req.RecentBlockhash,
		"require_all_signatures": opts.RequireAllSignatures,
		"verify_signatures":      opts.VerifySignatures,
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(p.sessionToken()).
		SetBody(body).
		SetResult(&result).
		Post("/v1/transaction/sign")
	if err != nil {
		return nil, fmt.Errorf("sign request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("sign returned status %s", resp.Status())
	}

	return &ports.SignedTransaction{RawTransaction: result.RawTransaction}, nil
}

// Logout terminates the provider-side session and drops the cached
// token.
func (p *HTTPProvider) Logout(ctx context.Context) error {
	token := p.sessionToken()
	if token == "" {
		return nil
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post("/v1/auth/logout")
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}

	p.SetSessionToken("")

	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		p.logger.Warn("provider logout returned error status", zap.String("status", resp.Status()))
	}

	return nil
}

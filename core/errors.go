package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrLoginInProgress  = errors.New("login already in progress")
	ErrLoginFailed      = errors.New("login failed")
	ErrNoSession        = errors.New("no session")
	ErrSessionInvalid   = errors.New("session not recognized by provider")
	ErrNoAccount        = errors.New("public address not resolved")
	ErrNoConnection     = errors.New("connection not initialized")
	ErrActionInProgress = errors.New("action already in progress")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidToken     = errors.New("invalid token")
)

// ProviderErrorCode enumerates the provider error variants the login
// flow recognizes. Anything the provider adapter cannot classify is
// reported as ProviderCodeUnknown rather than dropped.
type ProviderErrorCode string

const (
	ProviderCodeFailedVerification ProviderErrorCode = "failed_verification"
	ProviderCodeLinkExpired        ProviderErrorCode = "link_expired"
	ProviderCodeRateLimited        ProviderErrorCode = "rate_limited"
	ProviderCodeAlreadyLoggedIn    ProviderErrorCode = "already_logged_in"
	ProviderCodeUnknown            ProviderErrorCode = "unknown"
)

// ProviderError is a tagged error returned by the wallet-provider
// adapter. Message carries the provider's own wording for the
// recognized variants so it can be surfaced verbatim.
type ProviderError struct {
	Code    ProviderErrorCode
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// Recognized reports whether the error carries one of the four variants
// whose message is shown to the user as-is.
func (e *ProviderError) Recognized() bool {
	switch e.Code {
	case ProviderCodeFailedVerification, ProviderCodeLinkExpired,
		ProviderCodeRateLimited, ProviderCodeAlreadyLoggedIn:
		return true
	}
	return false
}

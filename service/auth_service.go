package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

// DefaultAccessTTL is the lifetime of locally minted access tokens.
const DefaultAccessTTL = 24 * time.Hour

var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9-]+(?:\\.[a-zA-Z0-9-]+)*$")

// LoginResult carries the API credential issued after a successful
// login.
type LoginResult struct {
	AccessToken string
	Credential  *core.Credential
}

// AuthService drives the email OTP login flow against the wallet
// provider and owns the persisted session.
type AuthService struct {
	provider  ports.WalletProvider
	store     ports.SessionStore
	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	logger    *zap.Logger

	accessTTL time.Duration

	mu              sync.Mutex
	loginInProgress bool
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	provider ports.WalletProvider,
	store ports.SessionStore,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		provider:  provider,
		store:     store,
		tokenizer: tokenizer,
		events:    events,
		logger:    logger,
		accessTTL: DefaultAccessTTL,
	}
}

func (s *AuthService) beginLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loginInProgress {
		return core.ErrLoginInProgress
	}
	s.loginInProgress = true
	return nil
}

func (s *AuthService) endLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginInProgress = false
}

// Login validates the email, runs the provider OTP challenge, persists
// the resulting session and mints a local access token. The provider is
// never contacted for a malformed email.
func (s *AuthService) Login(ctx context.Context, email string) (*LoginResult, error) {
	if !emailPattern.MatchString(email) {
		return nil, core.ErrInvalidEmail
	}

	if err := s.beginLogin(); err != nil {
		return nil, err
	}
	defer s.endLogin()

	token, err := s.provider.LoginWithEmailOTP(ctx, email)
	if err != nil {
		return nil, s.classifyLoginError(err)
	}

	if token == "" {
		s.logger.Warn("provider returned empty session token", zap.String("email", email))
		return nil, core.ErrLoginFailed
	}

	session := &core.Session{Token: token, Provider: core.ProviderEmail}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	now := time.Now()
	credential := &core.Credential{
		ID:        uuid.New().String(),
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}

	accessToken, err := s.tokenizer.CredentialToToken(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	if err := s.events.PublishLogin(ctx, email, credential.ID); err != nil {
		// The session is already established, so a missed event must not
		// fail the login.
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}

	return &LoginResult{AccessToken: accessToken, Credential: credential}, nil
}

// classifyLoginError matches the tagged provider variants. Recognized
// variants keep the provider's wording; everything else is logged and
// collapsed into a generic login failure.
func (s *AuthService) classifyLoginError(err error) error {
	var perr *core.ProviderError
	if errors.As(err, &perr) {
		if perr.Recognized() {
			return perr
		}
		s.logger.Warn("unrecognized provider error",
			zap.String("code", string(perr.Code)),
			zap.String("message", perr.Message))
		return core.ErrLoginFailed
	}

	s.logger.Error("login failed", zap.Error(err))
	return core.ErrLoginFailed
}

// Logout terminates the provider session and clears the persisted
// session token. The cached account address is intentionally retained
// so a re-login can show it immediately.
func (s *AuthService) Logout(ctx context.Context, credentialID string) error {
	if _, err := s.store.LoadSession(ctx); err != nil {
		if errors.Is(err, core.ErrNoSession) {
			return core.ErrNoSession
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.provider.Logout(ctx); err != nil {
		// Provider-side logout is best effort: the local session is
		// cleared either way.
		s.logger.Warn("provider logout failed", zap.Error(err))
	}

	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	address := ""
	if account, err := s.store.LoadAccount(ctx); err == nil {
		address = account.PublicAddress
	}

	if err := s.events.PublishLogout(ctx, address, credentialID); err != nil {
		s.logger.Warn("failed to publish logout event", zap.Error(err))
	}

	return nil
}

// ValidateAccessToken parses a locally minted access token and checks
// its expiry.
func (s *AuthService) ValidateAccessToken(token string) (*core.Credential, error) {
	credential, err := s.tokenizer.TokenToCredential(token)
	if err != nil {
		return nil, err
	}

	if time.Now().After(credential.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}

	return credential, nil
}

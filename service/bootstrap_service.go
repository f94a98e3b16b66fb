package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

const (
	// DefaultBootstrapDelay tolerates provider-side propagation latency
	// between issuing a session token and honoring it.
	DefaultBootstrapDelay = 5 * time.Second

	// DefaultBootstrapBudget bounds the confirmation retries.
	DefaultBootstrapBudget = 2 * time.Minute
)

// BootstrapService resolves the custodial account once a session token
// exists.
//
// The state machine is Unauthenticated -> AwaitingConfirmation ->
// Resolved or Unresolved. Confirmation failures are retried with
// exponential backoff inside a bounded budget; exhausting the budget or
// an explicit provider rejection lands in Unresolved, which is surfaced
// to the caller instead of leaving the machine stuck silently. The
// session token is never cleared here: a stale token stays until the
// user disconnects or logs in again.
type BootstrapService struct {
	provider ports.WalletProvider
	store    ports.SessionStore
	logger   *zap.Logger

	initialDelay  time.Duration
	retryInterval time.Duration
	budget        time.Duration

	mu      sync.RWMutex
	state   core.BootstrapState
	running bool
	account *core.Account
}

// NewBootstrapService creates a new bootstrap service.
func NewBootstrapService(provider ports.WalletProvider, store ports.SessionStore, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{
		provider:      provider,
		store:         store,
		logger:        logger,
		initialDelay:  DefaultBootstrapDelay,
		retryInterval: time.Second,
		budget:        DefaultBootstrapBudget,
		state:         core.StateUnauthenticated,
	}
}

// State returns the current bootstrap state.
func (s *BootstrapService) State() core.BootstrapState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Account returns the resolved account, if any.
func (s *BootstrapService) Account() (*core.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil, false
	}

	copied := *s.account
	return &copied, true
}

func (s *BootstrapService) setState(state core.BootstrapState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Run drives the bootstrap to a terminal state. It is safe to call
// again after a failed attempt; a run already in flight or a resolved
// account makes it a no-op. Cancelling the context stops the delay and
// the retries.
func (s *BootstrapService) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.state == core.StateResolved {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	session, err := s.store.LoadSession(ctx)
	if err != nil {
		s.setState(core.StateUnauthenticated)
		if errors.Is(err, core.ErrNoSession) {
			return core.ErrNoSession
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Token == "" {
		s.setState(core.StateUnauthenticated)
		return core.ErrNoSession
	}

	s.setState(core.StateAwaitingConfirmation)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.initialDelay):
	}

	account, err := s.confirm(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.setState(core.StateUnresolved)
		s.logger.Error("account bootstrap unresolved", zap.Error(err))
		return err
	}

	if err := s.store.SaveAccount(ctx, account); err != nil {
		s.setState(core.StateUnresolved)
		return fmt.Errorf("failed to persist account: %w", err)
	}

	s.mu.Lock()
	s.account = account
	s.state = core.StateResolved
	s.mu.Unlock()

	s.logger.Info("account resolved",
		zap.String("address", account.PublicAddress),
		zap.String("email", account.Email))

	return nil
}

func (s *BootstrapService) confirm(ctx context.Context) (*core.Account, error) {
	var account *core.Account

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval
	policy.MaxElapsedTime = s.budget

	operation := func() error {
		loggedIn, err := s.provider.IsLoggedIn(ctx)
		if err != nil {
			s.logger.Warn("login status check failed, retrying", zap.Error(err))
			return err
		}
		if !loggedIn {
			return backoff.Permanent(core.ErrSessionInvalid)
		}

		info, err := s.provider.GetInfo(ctx)
		if err != nil {
			s.logger.Warn("account info fetch failed, retrying", zap.Error(err))
			return err
		}

		account = info
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	return account, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

// DefaultRefreshFloor is the minimum time the refreshing flag stays
// asserted, so a fast fetch does not flicker in the UI.
const DefaultRefreshFloor = 500 * time.Millisecond

// BalanceService fetches and formats the on-chain balance of the
// resolved account.
//
// Refresh is safe to call concurrently: overlapping calls each fetch
// independently and the last write to the view wins. Nothing is
// cancelled on overlap.
type BalanceService struct {
	chain  ports.ChainClient
	store  ports.SessionStore
	logger *zap.Logger

	refreshFloor time.Duration

	mu   sync.RWMutex
	view core.BalanceView
}

// NewBalanceService creates a new balance service.
func NewBalanceService(chain ports.ChainClient, store ports.SessionStore, logger *zap.Logger) *BalanceService {
	return &BalanceService{
		chain:        chain,
		store:        store,
		logger:       logger,
		refreshFloor: DefaultRefreshFloor,
		view:         core.BalanceView{Display: "..."},
	}
}

// View returns the current balance view.
func (s *BalanceService) View() core.BalanceView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// FormatLamports renders a lamport amount for display: exactly "0" for
// a zero balance, the lamports/SOL quotient otherwise.
func FormatLamports(lamports uint64) string {
	if lamports == 0 {
		return "0"
	}

	amount := decimal.NewFromUint64(lamports)
	return amount.Div(decimal.NewFromInt(core.LamportsPerSOL)).String()
}

// Refresh fetches the balance and updates the view. Without a resolved
// address or a chain client it is a no-op. The refreshing flag stays
// asserted for at least the floor even when the fetch returns
// immediately, and is cleared after it regardless of outcome.
func (s *BalanceService) Refresh(ctx context.Context) error {
	if s.chain == nil {
		return nil
	}

	account, err := s.store.LoadAccount(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNoAccount) {
			return nil
		}
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account.PublicAddress == "" {
		return nil
	}

	started := time.Now()

	s.mu.Lock()
	s.view.Refreshing = true
	s.mu.Unlock()

	defer func() {
		if remaining := s.refreshFloor - time.Since(started); remaining > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(remaining):
			}
		}

		s.mu.Lock()
		s.view.Refreshing = false
		s.mu.Unlock()
	}()

	lamports, err := s.chain.GetBalance(ctx, account.PublicAddress)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	s.mu.Lock()
	s.view.Lamports = lamports
	s.view.Display = FormatLamports(lamports)
	s.view.Known = true
	s.mu.Unlock()

	s.logger.Debug("balance refreshed",
		zap.String("address", account.PublicAddress),
		zap.Uint64("lamports", lamports))

	return nil
}

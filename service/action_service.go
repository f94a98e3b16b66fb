package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

const (
	// AirdropLamports is the fixed test-network grant (2 SOL).
	AirdropLamports = 2 * core.LamportsPerSOL

	// CheckInLamports is the minimal transfer proving liveness (0.01 SOL).
	CheckInLamports = core.LamportsPerSOL / 100
)

// ActionService runs the one-shot airdrop and check-in operations. Each
// has an independent busy flag held for the whole round trip; neither
// is retried automatically.
type ActionService struct {
	provider ports.WalletProvider
	chain    ports.ChainClient
	store    ports.SessionStore
	logger   *zap.Logger

	mu          sync.Mutex
	airdropBusy bool
	checkInBusy bool
	lastCheckIn core.CheckInResult
}

// NewActionService creates a new action service.
func NewActionService(
	provider ports.WalletProvider,
	chain ports.ChainClient,
	store ports.SessionStore,
	logger *zap.Logger,
) *ActionService {
	return &ActionService{
		provider: provider,
		chain:    chain,
		store:    store,
		logger:   logger,
	}
}

// LastCheckIn returns the signature of the most recent check-in, if
// any.
func (s *ActionService) LastCheckIn() core.CheckInResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheckIn
}

// resolvedAddress loads the cached account address, mapping the missing
// cases onto the precondition errors.
func (s *ActionService) resolvedAddress(ctx context.Context) (string, error) {
	account, err := s.store.LoadAccount(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNoAccount) {
			return "", core.ErrNoAccount
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if account.PublicAddress == "" {
		return "", core.ErrNoAccount
	}
	return account.PublicAddress, nil
}

// Airdrop requests the fixed grant for the resolved address and waits
// for confirmation.
func (s *ActionService) Airdrop(ctx context.Context) (string, error) {
	if s.chain == nil {
		return "", core.ErrNoConnection
	}

	address, err := s.resolvedAddress(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.airdropBusy {
		s.mu.Unlock()
		return "", core.ErrActionInProgress
	}
	s.airdropBusy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.airdropBusy = false
		s.mu.Unlock()
	}()

	signature, err := s.chain.RequestAirdrop(ctx, address, AirdropLamports)
	if err != nil {
		return "", fmt.Errorf("airdrop request failed: %w", err)
	}

	if err := s.chain.ConfirmTransaction(ctx, signature); err != nil {
		return "", fmt.Errorf("airdrop confirmation failed: %w", err)
	}

	s.logger.Info("airdrop confirmed",
		zap.String("address", address),
		zap.String("signature", signature))

	return signature, nil
}

// throwawayRecipient generates a fresh keypair and returns its public
// key as a base58 address. The private key is discarded: the transfer
// only proves liveness, nobody needs to spend it.
func throwawayRecipient() (string, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate recipient key: %w", err)
	}
	return base58.Encode(pub), nil
}

// CheckIn builds a minimal transfer to a throwaway recipient, has the
// provider sign it and submits it, returning the transaction signature
// as the check-in proof.
func (s *ActionService) CheckIn(ctx context.Context) (*core.CheckInResult, error) {
	if s.provider == nil || s.chain == nil {
		return nil, core.ErrNoConnection
	}

	address, err := s.resolvedAddress(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.checkInBusy {
		s.mu.Unlock()
		return nil, core.ErrActionInProgress
	}
	s.checkInBusy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.checkInBusy = false
		s.mu.Unlock()
	}()

	recipient, err := throwawayRecipient()
	if err != nil {
		return nil, err
	}

	blockhash, err := s.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	signed, err := s.provider.SignTransaction(ctx, &core.TransferRequest{
		From:            address,
		To:              recipient,
		Lamports:        CheckInLamports,
		RecentBlockhash: blockhash,
	}, ports.SignOptions{
		RequireAllSignatures: false,
		VerifySignatures:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(signed.RawTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	signature, err := s.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}

	result := core.CheckInResult{Signature: signature}

	s.mu.Lock()
	s.lastCheckIn = result
	s.mu.Unlock()

	s.logger.Info("check-in submitted",
		zap.String("address", address),
		zap.String("signature", signature))

	return &result, nil
}

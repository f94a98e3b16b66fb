package ports

import (
	"context"

	"github.com/parasol-labs/checkin/core"
)

// SignOptions control how the provider signs a transaction.
type SignOptions struct {
	RequireAllSignatures bool
	VerifySignatures     bool
}

// SignedTransaction is the provider's signing result. RawTransaction is
// the base64-encoded wire transaction ready for submission.
type SignedTransaction struct {
	RawTransaction string
}

// WalletProvider abstracts the embedded-wallet provider. Login errors
// are reported as *core.ProviderError so callers can match variants
// exhaustively.
type WalletProvider interface {
	// LoginWithEmailOTP runs the email OTP challenge and returns the
	// provider session token.
	LoginWithEmailOTP(ctx context.Context, email string) (string, error)

	// IsLoggedIn reports whether the provider still honors the current
	// session.
	IsLoggedIn(ctx context.Context) (bool, error)

	// GetInfo returns the account metadata for the logged-in user.
	GetInfo(ctx context.Context) (*core.Account, error)

	// SignTransaction asks the provider's custodial signer to sign the
	// transfer.
	SignTransaction(ctx context.Context, req *core.TransferRequest, opts SignOptions) (*SignedTransaction, error)

	// Logout terminates the provider-side session.
	Logout(ctx context.Context) error
}

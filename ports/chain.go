package ports

import "context"

// ChainClient abstracts the blockchain RPC endpoint.
type ChainClient interface {
	// GetBalance returns the lamport balance of the address.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetLatestBlockhash returns a recent blockhash for building
	// transactions.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// RequestAirdrop requests a test-network token grant and returns the
	// transaction signature.
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)

	// ConfirmTransaction blocks until the signature is confirmed or the
	// context expires.
	ConfirmTransaction(ctx context.Context, signature string) error

	// SendRawTransaction submits a signed wire transaction and returns
	// its signature.
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
}

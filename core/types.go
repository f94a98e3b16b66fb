package core

import "time"

// ProviderEmail tags sessions created through the email OTP flow.
const ProviderEmail = "EMAIL"

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Session holds the wallet-provider credential for the current user.
// A non-empty token means the user is considered authenticated locally;
// whether the provider still honors it is only established by the
// account bootstrap.
type Session struct {
	Token    string `json:"token"`
	Provider string `json:"provider"`
}

// Account is the custodial account resolved from the wallet provider
// after login. PublicAddress is immutable for the lifetime of a session.
type Account struct {
	PublicAddress string `json:"public_address"`
	Email         string `json:"email"`
}

// BalanceView is the ephemeral, display-ready balance state.
type BalanceView struct {
	Lamports   uint64 // meaningful only when Known
	Display    string // "0" for a zero balance, lamports/SOL quotient otherwise
	Known      bool
	Refreshing bool
}

// CheckInResult is the proof of the last check-in transaction.
type CheckInResult struct {
	Signature string `json:"signature"`
}

// TransferRequest describes a transfer for the wallet provider to sign.
type TransferRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Lamports        uint64 `json:"lamports"`
	RecentBlockhash string `json:"recent_blockhash"`
}

// Credential is the locally minted API credential issued after a
// successful provider login. It is the claims side of the access token;
// the provider session token itself never leaves the store.
type Credential struct {
	ID        string    // unique credential identifier
	Email     string    // email the provider authenticated
	IssuedAt  time.Time // when the credential was created
	ExpiresAt time.Time // when the credential expires
}

// BootstrapState tracks the account bootstrap state machine.
type BootstrapState string

const (
	// StateUnauthenticated means no session token exists yet.
	StateUnauthenticated BootstrapState = "unauthenticated"

	// StateAwaitingConfirmation means a session token exists and the
	// provider has not yet confirmed it.
	StateAwaitingConfirmation BootstrapState = "awaiting_confirmation"

	// StateResolved means the provider confirmed the session and the
	// account metadata is cached.
	StateResolved BootstrapState = "resolved"

	// StateUnresolved means the provider rejected the session or the
	// retry budget ran out. The stale session token is kept until the
	// user disconnects or logs in again.
	StateUnresolved BootstrapState = "unresolved"
)

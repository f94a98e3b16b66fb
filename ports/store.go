package ports

import (
	"context"

	"github.com/parasol-labs/checkin/core"
)

// SessionStore persists the session token and the cached account across
// restarts. The two entries have independent lifetimes: the session is
// cleared on disconnect, the cached account survives it.
type SessionStore interface {
	SaveSession(ctx context.Context, session *core.Session) error

	// LoadSession returns core.ErrNoSession when nothing is persisted.
	LoadSession(ctx context.Context) (*core.Session, error)

	ClearSession(ctx context.Context) error

	SaveAccount(ctx context.Context, account *core.Account) error

	// LoadAccount returns core.ErrNoAccount when nothing is persisted.
	LoadAccount(ctx context.Context) (*core.Account, error)
}

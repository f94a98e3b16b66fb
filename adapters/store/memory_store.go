package store

import (
	"context"
	"sync"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

// MemoryStore is an in-memory implementation of the SessionStore
// interface, primarily intended for testing.
type MemoryStore struct {
	mu      sync.RWMutex
	session *core.Session
	account *core.Account
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) SaveSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.session = &copied
	return nil
}

func (s *MemoryStore) LoadSession(ctx context.Context) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, core.ErrNoSession
	}

	copied := *s.session
	return &copied, nil
}

func (s *MemoryStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

func (s *MemoryStore) SaveAccount(ctx context.Context, account *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *account
	s.account = &copied
	return nil
}

func (s *MemoryStore) LoadAccount(ctx context.Context) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil, core.ErrNoAccount
	}

	copied := *s.account
	return &copied, nil
}

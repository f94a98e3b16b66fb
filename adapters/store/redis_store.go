package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

const (
	sessionKey = "checkin:session"
	accountKey = "checkin:account"
)

// RedisStore is a Redis implementation of the SessionStore interface.
// Entries are written without TTL: the session lives until an explicit
// disconnect, the cached account until it is overwritten.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ ports.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) SaveSession(ctx context.Context, session *core.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *RedisStore) LoadSession(ctx context.Context) (*core.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveAccount(ctx context.Context, account *core.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := s.client.Set(ctx, accountKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}

func (s *RedisStore) LoadAccount(ctx context.Context) (*core.Account, error) {
	payload, err := s.client.Get(ctx, accountKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNoAccount
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	var account core.Account
	if err := json.Unmarshal(payload, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

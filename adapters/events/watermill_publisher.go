package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/parasol-labs/checkin/ports"
)

const (
	loginTopic  = "checkin.login"
	logoutTopic = "checkin.logout"
)

// LoginEvent is published after a successful email OTP login.
type LoginEvent struct {
	Email        string `json:"email"`
	CredentialID string `json:"credential_id"`
}

// LogoutEvent is published when a session is disconnected.
type LogoutEvent struct {
	Address      string `json:"address"`
	CredentialID string `json:"credential_id"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, email string, credentialID string) error {
	return p.publish(loginTopic, LoginEvent{Email: email, CredentialID: credentialID})
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, credentialID string) error {
	return p.publish(logoutTopic, LogoutEvent{Address: address, CredentialID: credentialID})
}

package ports

import "context"

// EventPublisher publishes session lifecycle events to notify other
// services.
type EventPublisher interface {
	PublishLogin(ctx context.Context, email string, credentialID string) error
	PublishLogout(ctx context.Context, address string, credentialID string) error
}

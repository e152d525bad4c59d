package service

import (
	"context"
)

// EventIdentityCreated is published whenever a new identity is created,
// whether by password signup or OAuth resolve-or-create.
const EventIdentityCreated = "identity.created"

// IdentityEvent is the payload published to external analytics/telemetry
// collaborators. Publishing is fire-and-forget: failures are logged and never
// block or fail the operation that raised the event.
type IdentityEvent struct {
	RequestID  string `json:"request_id,omitempty"` // For distributed tracing
	Name       string `json:"name"`
	IdentityID string `json:"identity_id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Provider   string `json:"provider,omitempty"` // Set when the identity originated from an OAuth profile.
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishIdentityEvent publishes an identity lifecycle event for async processing
	PublishIdentityEvent(ctx context.Context, event *IdentityEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

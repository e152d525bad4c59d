package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
)

// publishIdentityCreated emits the identity.created event. Publishing is
// best-effort: failures are logged and never propagate to the caller.
func publishIdentityCreated(ctx context.Context, logger *slog.Logger, publisher service.EventPublisher, identity *entity.Identity, provider string) {
	event := &service.IdentityEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Name:       service.EventIdentityCreated,
		IdentityID: identity.ID.String(),
		Username:   identity.Username,
		Email:      identity.Email,
		Provider:   provider,
	}

	if err := publisher.PublishIdentityEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish identity created event",
			slog.Any("identityID", identity.ID), slog.Any("error", err))
	}
}

package usecase

import (
	"context"

	"github.com/google/uuid"

	"gatekeeper/internal/domain/entity"
)

// UpdateProfileInput describes a partial profile update. Nil fields are left
// untouched. CurrentPassword must check out whenever the identity has a
// password and the change touches email or password.
type UpdateProfileInput struct {
	IdentityID      uuid.UUID
	Username        *string
	Email           *string
	NewPassword     *string
	CurrentPassword string
}

// UserUsecase defines the interface for identity profile operations.
type UserUsecase interface {
	// GetProfile returns the identity behind the id.
	GetProfile(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// UpdateProfile applies a partial update. Changing the email resets the
	// verified flag and triggers a fresh verification mail.
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*entity.Identity, error)

	// Deactivate soft-deletes the identity. Existing session tokens keep
	// working until expiry but every lookup behind them starts failing.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

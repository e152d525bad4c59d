package impl

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"
)

// profileService implements the UserUsecase interface.
type profileService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	verification usecase.VerificationUsecase
	logger       *slog.Logger
}

// ProfileServiceParams holds dependencies for profileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Hasher       service.PasswordHasher
	Verification usecase.VerificationUsecase
	Logger       *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.UserUsecase {
	return &profileService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		hasher:       params.Hasher,
		verification: params.Verification,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile returns the identity behind the id.
func (srv *profileService) GetProfile(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	identity, err := srv.identityRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "identity not found")
		}

		return nil, errors.Wrap(err, "failed to load identity")
	}

	return identity, nil
}

// UpdateProfile applies a partial update to the identity. Email and password
// changes require the current password when the identity has one. An email
// change drops the verified flag and triggers a fresh verification mail.
func (srv *profileService) UpdateProfile(ctx context.Context, input *usecase.UpdateProfileInput) (*entity.Identity, error) {
	srv.log(ctx).Info("Updating profile", slog.Any("identityID", input.IdentityID))

	var (
		updated      *entity.Identity
		emailChanged bool
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()

		identity, err := identityRepo.FindByID(ctx, input.IdentityID)
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrNotFound, "identity not found")
			}

			return errors.Wrap(err, "failed to load identity for update")
		}

		patch, err := srv.buildPatch(ctx, identity, input)
		if err != nil {
			return err
		}
		emailChanged = patch.Email != nil

		updated, err = identityRepo.Update(ctx, identity.ID, patch)
		if err != nil {
			return errors.Wrap(err, "failed to update identity")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Profile update failed",
			slog.Any("identityID", input.IdentityID), slog.Any("error", err))

		return nil, err
	}

	if emailChanged {
		if err := srv.verification.RequestEmailVerification(ctx, updated.ID); err != nil {
			srv.log(ctx).Warn("Failed to send verification email after email change",
				slog.Any("identityID", updated.ID), slog.Any("error", err))
		}
	}

	srv.log(ctx).Debug("Profile updated", slog.Any("identityID", updated.ID))

	return updated, nil
}

// buildPatch validates the requested changes against the current identity
// state and assembles the repository patch.
func (srv *profileService) buildPatch(ctx context.Context, identity *entity.Identity, input *usecase.UpdateProfileInput) (*repository.IdentityPatch, error) {
	patch := &repository.IdentityPatch{}

	sensitive := input.NewPassword != nil ||
		(input.Email != nil && entity.NormalizeEmail(*input.Email) != identity.NormalizedEmail)

	if sensitive && identity.HasPassword() {
		if !srv.hasher.Check(input.CurrentPassword, identity.PasswordHash) {
			srv.log(ctx).Warn("Current password mismatch on profile update",
				slog.Any("identityID", identity.ID))

			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "current password mismatch")
		}
	}

	if input.Username != nil && *input.Username != identity.Username {
		patch.Username = input.Username
	}

	if input.Email != nil && entity.NormalizeEmail(*input.Email) != identity.NormalizedEmail {
		patch.Email = input.Email
		// Ownership of the new address is unproven until re-verified.
		verified := false
		patch.IsEmailVerified = &verified
	}

	if input.NewPassword != nil {
		if *input.NewPassword == "" {
			return nil, errors.Wrap(domainerrors.ErrValidationFailed, "password must not be empty")
		}

		hashed, err := srv.hasher.Hash(*input.NewPassword)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash new password")
		}
		patch.PasswordHash = &hashed
	}

	return patch, nil
}

// Deactivate soft-deletes the identity.
func (srv *profileService) Deactivate(ctx context.Context, id uuid.UUID) error {
	srv.log(ctx).Info("Deactivating identity", slog.Any("identityID", id))

	if err := srv.identityRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "identity not found")
		}

		return errors.Wrap(err, "failed to deactivate identity")
	}

	return nil
}

// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"
)

// credentialService implements the AuthUsecase interface.
type credentialService struct {
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	tokenIssuer  service.TokenIssuer
	verification usecase.VerificationUsecase
	publisher    service.EventPublisher
	logger       *slog.Logger

	// dummyHash is compared against when the principal has no usable password,
	// so failed lookups cost the same as failed password checks.
	dummyHash string
}

// CredentialServiceParams holds dependencies for credentialService, injected by Fx.
type CredentialServiceParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	Hasher       service.PasswordHasher
	TokenIssuer  service.TokenIssuer
	Verification usecase.VerificationUsecase
	Publisher    service.EventPublisher
	Logger       *slog.Logger
}

// NewCredentialService is the constructor for credentialService. It receives all dependencies as interfaces.
func NewCredentialService(params CredentialServiceParams) (usecase.AuthUsecase, error) {
	dummyHash, err := params.Hasher.Hash("timing-equalizer-placeholder")
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare dummy hash")
	}

	return &credentialService{
		identityRepo: params.IdentityRepo,
		hasher:       params.Hasher,
		tokenIssuer:  params.TokenIssuer,
		verification: params.Verification,
		publisher:    params.Publisher,
		logger:       params.Logger,
		dummyHash:    dummyHash,
	}, nil
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SignUp orchestrates the complete identity registration process.
func (srv *credentialService) SignUp(ctx context.Context, input *usecase.SignUpInput) (*usecase.SignUpOutput, error) {
	srv.log(ctx).Info("Starting signup", slog.String("username", input.Username))

	if input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "password must not be empty")
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during signup")
	}

	newIdentity := &entity.Identity{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Roles:        entity.DefaultRoles(),
	}

	if err := srv.identityRepo.Create(ctx, newIdentity); err != nil {
		srv.log(ctx).Warn("Signup failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create identity during signup")
	}

	// Post-creation side effects are best-effort: a lost mail or event never
	// rolls back the account.
	if err := srv.verification.RequestEmailVerification(ctx, newIdentity.ID); err != nil {
		srv.log(ctx).Warn("Failed to send verification email after signup",
			slog.Any("identityID", newIdentity.ID), slog.Any("error", err))
	}
	publishIdentityCreated(ctx, srv.log(ctx), srv.publisher, newIdentity, "")

	srv.log(ctx).Debug("Signup completed", slog.Any("identityID", newIdentity.ID))

	return &usecase.SignUpOutput{Identity: newIdentity}, nil
}

// Login orchestrates the password login process.
func (srv *credentialService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting password login")

	identity, err := srv.resolvePrincipal(ctx, input.Login)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			// Burn the same bcrypt work as a real check so an unknown
			// principal is not observable through response timing.
			srv.hasher.Check(input.Password, srv.dummyHash)
			srv.log(ctx).Warn("Login failed: unknown principal")

			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "login failed")
		}

		return nil, errors.Wrap(err, "failed to resolve login principal")
	}

	if !identity.HasPassword() {
		srv.hasher.Check(input.Password, srv.dummyHash)
		srv.log(ctx).Warn("Login failed: identity has no password", slog.Any("identityID", identity.ID))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "login failed")
	}

	if !srv.hasher.Check(input.Password, identity.PasswordHash) {
		srv.log(ctx).Warn("Login failed: password mismatch", slog.Any("identityID", identity.ID))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "login failed")
	}

	token, err := srv.tokenIssuer.Issue(identity)
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue session token")
	}

	srv.log(ctx).Debug("Login completed", slog.Any("identityID", identity.ID))

	return &usecase.LoginOutput{Token: token, Identity: identity}, nil
}

// resolvePrincipal looks the login value up as an email when it contains '@',
// as a username otherwise.
func (srv *credentialService) resolvePrincipal(ctx context.Context, login string) (*entity.Identity, error) {
	if strings.Contains(login, "@") {
		return srv.identityRepo.FindByNormalizedEmail(ctx, entity.NormalizeEmail(login))
	}

	return srv.identityRepo.FindByNormalizedUsername(ctx, entity.NormalizeUsername(login))
}

package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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

// verificationService implements the VerificationUsecase interface.
type verificationService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	tokenRepo    repository.VerificationTokenRepository
	hasher       service.PasswordHasher
	emailSender  service.EmailSender
	clock        service.Clock
	logger       *slog.Logger
}

// VerificationServiceParams holds dependencies for verificationService, injected by Fx.
type VerificationServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	TokenRepo    repository.VerificationTokenRepository
	Hasher       service.PasswordHasher
	EmailSender  service.EmailSender
	Clock        service.Clock
	Logger       *slog.Logger
}

// NewVerificationService is the constructor for verificationService.
func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return &verificationService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		tokenRepo:    params.TokenRepo,
		hasher:       params.Hasher,
		emailSender:  params.EmailSender,
		clock:        params.Clock,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestEmailVerification issues a fresh verification code for the identity and mails it.
func (srv *verificationService) RequestEmailVerification(ctx context.Context, identityID uuid.UUID) error {
	identity, err := srv.identityRepo.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "identity not found")
		}

		return errors.Wrap(err, "failed to load identity for verification")
	}

	return srv.issueAndMail(ctx, identity, entity.PurposeEmailVerify, service.TemplateVerifyEmail)
}

// VerifyEmail consumes a verification code and marks the owning identity's email verified.
// The code is deleted on presentation whatever the outcome; an expired code is
// reported distinctly from an unknown one.
func (srv *verificationService) VerifyEmail(ctx context.Context, code string) error {
	return srv.consumeToken(ctx, code, entity.PurposeEmailVerify, func(ctx context.Context, repoFactory repository.RepositoryFactory, identityID uuid.UUID) error {
		verified := true
		_, err := repoFactory.IdentityRepo().Update(ctx, identityID, &repository.IdentityPatch{
			IsEmailVerified: &verified,
		})

		return err
	})
}

// ForgotPassword issues a password reset code for the account behind the email.
// An unknown address is absorbed silently so the endpoint cannot be used to
// probe which emails have accounts.
func (srv *verificationService) ForgotPassword(ctx context.Context, email string) error {
	identity, err := srv.identityRepo.FindByNormalizedEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			srv.log(ctx).Info("Password reset requested for unknown email")

			return nil
		}

		return errors.Wrap(err, "failed to load identity for password reset")
	}

	return srv.issueAndMail(ctx, identity, entity.PurposePasswordReset, service.TemplateResetPassword)
}

// ResetPassword consumes a reset code and replaces the identity's password.
func (srv *verificationService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	if input.NewPassword == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed, "password must not be empty")
	}

	// bcrypt is CPU-bound; hash before entering the transaction.
	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	return srv.consumeToken(ctx, input.Code, entity.PurposePasswordReset, func(ctx context.Context, repoFactory repository.RepositoryFactory, identityID uuid.UUID) error {
		_, err := repoFactory.IdentityRepo().Update(ctx, identityID, &repository.IdentityPatch{
			PasswordHash: &hashedPassword,
		})

		return err
	})
}

// consumeToken implements the single-use token discipline shared by the
// verify and reset flows: look the code up, delete it no matter what, then
// run the success action only for a live code of the right purpose. The whole
// sequence commits even when the outcome is an application error, which is
// what burns expired and mispurposed codes.
func (srv *verificationService) consumeToken(
	ctx context.Context,
	code string,
	purpose entity.TokenPurpose,
	onValid func(ctx context.Context, repoFactory repository.RepositoryFactory, identityID uuid.UUID) error,
) error {
	var outcome error

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.TokenRepo()

		token, err := tokenRepo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				outcome = errors.Wrap(domainerrors.ErrNotFound, "verification code not found")

				return nil
			}

			return errors.Wrap(err, "failed to find verification token")
		}

		if err := tokenRepo.Delete(ctx, code); err != nil {
			return errors.Wrap(err, "failed to consume verification token")
		}

		if token.Purpose != purpose {
			srv.log(ctx).Warn("Verification code presented for wrong purpose",
				slog.String("purpose", string(token.Purpose)))
			outcome = errors.Wrap(domainerrors.ErrNotFound, "verification code not found")

			return nil
		}

		if !token.IsStillValid(srv.clock.Now()) {
			outcome = errors.Wrap(domainerrors.ErrTokenExpired, "verification code expired")

			return nil
		}

		if err := onValid(ctx, repoFactory, token.IdentityID); err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				outcome = errors.Wrap(domainerrors.ErrNotFound, "identity behind code no longer exists")

				return nil
			}

			return err
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute token consumption transaction", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute token consumption transaction")
	}

	return outcome
}

// issueAndMail creates a fresh code and emails it. Dispatch is detached so a
// slow relay cannot stall the caller, and failures are absorbed: the token
// exists either way and the caller's operation must not fail.
func (srv *verificationService) issueAndMail(ctx context.Context, identity *entity.Identity, purpose entity.TokenPurpose, template service.EmailTemplate) error {
	// OAuth identities may carry no address at all.
	if identity.Email == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed, "identity has no email address")
	}

	token := &entity.VerificationToken{
		Code:       newTokenCode(),
		IdentityID: identity.ID,
		Purpose:    purpose,
		CreatedAt:  srv.clock.Now(),
	}

	if err := srv.tokenRepo.Create(ctx, token); err != nil {
		return errors.Wrap(err, "failed to create verification token")
	}

	logger := srv.log(ctx)
	mailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := srv.emailSender.Send(mailCtx, identity.Email, template, map[string]string{
			"code":     token.Code,
			"username": identity.Username,
		}); err != nil {
			logger.Warn("Failed to send verification email",
				slog.Any("identityID", identity.ID),
				slog.String("template", string(template)),
				slog.Any("error", err),
			)
		}
	}()

	return nil
}

// newTokenCode returns a 64-character hex code from 32 random bytes.
func newTokenCode() string {
	buf := make([]byte, 32)
	rand.Read(buf)

	return hex.EncodeToString(buf)
}

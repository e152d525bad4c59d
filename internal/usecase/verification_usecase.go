package usecase

import (
	"context"

	"github.com/google/uuid"
)

// ResetPasswordInput carries a reset code and the replacement password.
type ResetPasswordInput struct {
	Code        string
	NewPassword string
}

// VerificationUsecase defines the interface for email verification and
// password reset flows built on single-use codes.
type VerificationUsecase interface {
	// RequestEmailVerification issues a fresh verification code for the
	// identity and emails it. Mail delivery is best-effort.
	RequestEmailVerification(ctx context.Context, identityID uuid.UUID) error

	// VerifyEmail consumes a verification code and marks the owning identity's
	// email verified. The code is deleted on presentation regardless of outcome.
	VerifyEmail(ctx context.Context, code string) error

	// ForgotPassword issues a password reset code for the account behind the
	// email, if one exists. The outcome never reveals whether it does.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes a reset code and replaces the identity's password.
	ResetPassword(ctx context.Context, input *ResetPasswordInput) error
}

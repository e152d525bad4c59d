// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"
)

// --- Input DTOs ---

// SignUpInput defines the data required to register a new identity.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines the data required to log in with a password.
// Login accepts either a username or an email address; a value containing
// '@' is treated as an email.
type LoginInput struct {
	Login    string
	Password string
}

// OAuthLoginInput defines the data required to log in through an OAuth provider.
// Credential is the provider-issued proof (for Google, the ID token). The
// optional tokens are stored on the linked external account when it is created.
type OAuthLoginInput struct {
	Provider     entity.Provider
	Credential   string
	AccessToken  string
	RefreshToken string
}

// --- Output DTOs ---

// SignUpOutput returns the newly created identity.
type SignUpOutput struct {
	Identity *entity.Identity
}

// LoginOutput returns the session token and identity after a successful login.
type LoginOutput struct {
	Token    string
	Identity *entity.Identity
}

// AuthUsecase defines the interface for credential-based authentication operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// SignUp registers a new identity with a username, email and password.
	SignUp(ctx context.Context, input *SignUpInput) (*SignUpOutput, error)

	// Login authenticates by username or email plus password and issues a
	// session token. Unknown principal, passwordless identity and wrong
	// password are indistinguishable to the caller.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
}

// OAuthUsecase defines the interface for provider-based login.
type OAuthUsecase interface {
	// OAuthLogin verifies a provider credential and resolves it to an
	// identity, creating or linking one as needed, then issues a session token.
	OAuthLogin(ctx context.Context, input *OAuthLoginInput) (*LoginOutput, error)
}

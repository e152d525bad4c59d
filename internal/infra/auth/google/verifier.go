// Package google verifies Google ID tokens and maps them to provider-neutral profiles.
package google

import (
	"context"
	"log/slog"

	"google.golang.org/api/idtoken"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

// validateFunc matches idtoken.Validate so tests can stub the network call.
type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier implements service.OAuthVerifier for Google sign-in. It validates
// the ID token against Google's public keys and checks the audience matches
// our client ID.
type Verifier struct {
	clientID string
	logger   *slog.Logger
	validate validateFunc
}

// NewVerifier creates a Google ID token verifier.
func NewVerifier(cfg *config.Config, logger *slog.Logger) (service.OAuthVerifier, error) {
	if cfg.GoogleOAuth == nil || cfg.GoogleOAuth.ClientID == "" {
		return nil, errors.New("google oauth client id must be provided")
	}

	return &Verifier{
		clientID: cfg.GoogleOAuth.ClientID,
		logger:   logger,
		validate: idtoken.Validate,
	}, nil
}

// Provider returns the OAuth provider this verifier serves.
func (v *Verifier) Provider() entity.Provider {
	return entity.ProviderGoogle
}

// Verify validates the ID token and extracts the subject and email claims.
func (v *Verifier) Verify(ctx context.Context, credential string) (*service.OAuthProfile, error) {
	payload, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		v.logger.Warn("google id token validation failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "validate google id token")
	}

	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		// An unverified address must not be trusted for account matching.
		email = ""
	}

	profile := &service.OAuthProfile{
		ExternalID: payload.Subject,
		Email:      email,
	}
	if email != "" {
		profile.Emails = []string{email}
	}

	v.logger.Info("google id token verified",
		slog.String("externalID", profile.ExternalID))

	return profile, nil
}

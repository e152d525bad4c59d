package service

import (
	"context"

	"gatekeeper/internal/domain/entity"
)

// OAuthProfile is the provider-neutral projection of a third-party profile.
// Per-provider verifiers map their raw payloads into this shape, collapsing
// what would otherwise be one strategy type per provider.
type OAuthProfile struct {
	ExternalID   string   // Provider-specific user ID (e.g. Google's 'sub' claim).
	Email        string   // Primary email, may be empty if the provider supplies none.
	Emails       []string // Any additional addresses the provider lists, used as fallback.
	AccessToken  string
	RefreshToken string
}

// OAuthVerifier validates a provider credential (an ID token or exchanged
// access token) and extracts the profile fields the linker needs.
type OAuthVerifier interface {
	// Verify checks the credential with the provider and returns the profile.
	Verify(ctx context.Context, credential string) (*OAuthProfile, error)

	// Provider returns which OAuth provider this verifier serves.
	Provider() entity.Provider
}

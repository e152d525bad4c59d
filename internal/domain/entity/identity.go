// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies an external OAuth identity source.
type Provider string

const (
	// ProviderGoogle is the Google OAuth provider.
	ProviderGoogle Provider = "google"
	// ProviderFacebook is the Facebook OAuth provider.
	ProviderFacebook Provider = "facebook"
	// ProviderGithub is the GitHub OAuth provider.
	ProviderGithub Provider = "github"
	// ProviderTwitter is the Twitter OAuth provider.
	ProviderTwitter Provider = "twitter"
)

// String returns the string representation of the Provider.
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the Provider is a known value.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderGithub, ProviderTwitter:
		return true
	default:
		return false
	}
}

// ExternalAccount holds the reference to an identity at an external provider.
// At most one ExternalAccount exists per provider per identity, and an
// external ID is unique per provider across all identities.
type ExternalAccount struct {
	ExternalID   string // The provider-specific user ID (e.g. Google's 'sub' claim).
	AccessToken  string // OAuth access token captured at link time.
	RefreshToken string // OAuth refresh token captured at link time, may be empty.
}

// Identity is the stored principal of the system: a user account derived from
// password credentials, an OAuth profile, or both.
//
// Username and Email keep the value as the user entered it; NormalizedUsername
// and NormalizedEmail carry the canonical forms that the uniqueness invariants
// are enforced against (see Normalize* in this package).
type Identity struct {
	ID                 uuid.UUID
	Username           string
	NormalizedUsername string
	Email              string
	NormalizedEmail    string
	PasswordHash       string // Empty for OAuth-only identities; such identities cannot authenticate with a password.
	IsEmailVerified    bool
	Roles              Roles // Never empty; defaults to {RoleUser}.
	ExternalAccounts   map[Provider]ExternalAccount
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time // Soft delete marker; set identities are excluded from lookups but retained for audit.
}

// HasPassword reports whether the identity can authenticate with a password.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// ExternalAccount returns the linked account for a provider, if any.
func (i *Identity) ExternalAccount(provider Provider) (ExternalAccount, bool) {
	account, ok := i.ExternalAccounts[provider]

	return account, ok
}

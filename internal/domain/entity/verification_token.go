// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose tags what a verification token may be redeemed for.
type TokenPurpose string

const (
	// PurposeEmailVerify marks a token that confirms ownership of an email address.
	PurposeEmailVerify TokenPurpose = "email_verify"
	// PurposePasswordReset marks a token that authorizes a password reset.
	PurposePasswordReset TokenPurpose = "password_reset"
)

// TokenValidity is the window within which a verification token can be
// redeemed, measured from its creation time.
const TokenValidity = 24 * time.Hour

// VerificationToken is a single-use, time-limited secret tied to an identity.
// Tokens are looked up only by code and are deleted on first presentation,
// whether or not the presentation succeeds.
type VerificationToken struct {
	ID         uuid.UUID
	Code       string // Opaque high-entropy secret, unique across all tokens.
	IdentityID uuid.UUID
	Purpose    TokenPurpose
	CreatedAt  time.Time
}

// IsStillValid reports whether the token is within its validity window at
// the given instant.
func (t *VerificationToken) IsStillValid(now time.Time) bool {
	return now.Sub(t.CreatedAt) <= TokenValidity
}

package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatekeeper/internal/domain/entity"
)

// Claims is the decoded payload of a session token.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// IdentityID returns the token subject parsed as an identity ID.
func (c *Claims) IdentityID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// RoleSet returns the claim roles as a typed role set.
func (c *Claims) RoleSet() entity.Roles {
	return entity.RolesFromStrings(c.Roles)
}

// TokenIssuer mints and parses signed, time-bound session tokens carrying
// identity and role claims.
type TokenIssuer interface {
	// Issue produces a signed token for the identity. Signing key and expiry
	// come from configuration.
	Issue(identity *entity.Identity) (string, error)

	// Parse verifies signature and expiry and returns the claims. It does not
	// re-check the identity against the store: callers needing freshness
	// (e.g. after a role change) must re-resolve the identity by id, trading
	// immediacy of revocation for statelessness.
	Parse(token string) (*Claims, error)
}

package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"gatekeeper/internal/delivery/http/session"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyIdentityID = "identityID"
	ContextKeyUsername   = "username"
	ContextKeyRoles      = "roles"
)

// AuthMiddleware provides middleware for session token authentication and
// role-based authorization.
type AuthMiddleware struct {
	tokenIssuer service.TokenIssuer
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenIssuer service.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokenIssuer: tokenIssuer}
}

// Authenticate validates the session token from the cookie or bearer header.
// Every failure mode collapses into the same unauthorized error.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := session.ExtractToken(c)
		if !ok {
			return errors.Wrap(domainerrors.ErrUnauthorized, "missing session token")
		}

		claims, err := m.tokenIssuer.Parse(tokenString)
		if err != nil {
			return errors.Wrap(domainerrors.ErrUnauthorized, "invalid session token")
		}

		identityID, err := claims.IdentityID()
		if err != nil {
			return errors.Wrap(domainerrors.ErrUnauthorized, "invalid subject in session token")
		}

		// Set principal info on the context for handlers to use
		c.Set(ContextKeyIdentityID, identityID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRoles, claims.RoleSet())

		return next(c)
	}
}

// RequireRoles is a middleware factory that checks the principal's roles
// against a requirement. Any one matching role suffices; an empty requirement
// allows everyone through. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRoles(required ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get(ContextKeyRoles).(entity.Roles)
			if !ok {
				return errors.Wrap(domainerrors.ErrForbidden, "role information missing")
			}

			if !roles.Allows(required) {
				return errors.Wrap(domainerrors.ErrForbidden, "insufficient role")
			}

			return next(c)
		}
	}
}

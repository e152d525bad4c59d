package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/delivery/http/session"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

// stubIssuer resolves fixed token strings to canned claims.
type stubIssuer struct {
	claims map[string]*service.Claims
}

func (s *stubIssuer) Issue(identity *entity.Identity) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubIssuer) Parse(token string) (*service.Claims, error) {
	claims, ok := s.claims[token]
	if !ok {
		return nil, errors.New("bad token")
	}

	return claims, nil
}

func claimsFor(id uuid.UUID, username string, roles ...string) *service.Claims {
	return &service.Claims{
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id.String(),
		},
	}
}

func runRequest(m *AuthMiddleware, req *http.Request, required ...entity.Role) (echo.Context, error) {
	c := echo.New().NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error { return nil }
	wrapped := m.Authenticate(handler)
	if len(required) > 0 {
		wrapped = m.Authenticate(m.RequireRoles(required...)(handler))
	}

	return c, wrapped(c)
}

func TestAuthenticate(t *testing.T) {
	identityID := uuid.New()
	m := NewAuthMiddleware(&stubIssuer{claims: map[string]*service.Claims{
		"good-token": claimsFor(identityID, "alice", "user", "admin"),
		"bad-sub":    {Username: "eve", RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}},
	}})

	t.Run("valid cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: "good-token"})

		c, err := runRequest(m, req)
		require.NoError(t, err)

		assert.Equal(t, identityID, c.Get(ContextKeyIdentityID))
		assert.Equal(t, "alice", c.Get(ContextKeyUsername))
		assert.Equal(t, entity.Roles{entity.RoleUser, entity.RoleAdmin}, c.Get(ContextKeyRoles))
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")

		_, err := runRequest(m, req)
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := runRequest(m, httptest.NewRequest(http.MethodGet, "/user/me", nil))
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("unparseable token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: "garbage"})

		_, err := runRequest(m, req)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("malformed subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: "bad-sub"})

		_, err := runRequest(m, req)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})
}

func TestRequireRoles(t *testing.T) {
	m := NewAuthMiddleware(&stubIssuer{claims: map[string]*service.Claims{
		"user-token":  claimsFor(uuid.New(), "alice", "user"),
		"admin-token": claimsFor(uuid.New(), "root", "user", "admin"),
	}})

	request := func(token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: token})

		return req
	}

	t.Run("holder of a required role passes", func(t *testing.T) {
		_, err := runRequest(m, request("admin-token"), entity.RoleAdmin, entity.RoleRoot)
		assert.NoError(t, err)
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		_, err := runRequest(m, request("user-token"), entity.RoleAdmin, entity.RoleRoot)
		assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	})

	t.Run("empty requirement admits anyone", func(t *testing.T) {
		c := echo.New().NewContext(request("user-token"), httptest.NewRecorder())
		handler := m.Authenticate(m.RequireRoles()(func(c echo.Context) error { return nil }))

		assert.NoError(t, handler(c))
	})
}

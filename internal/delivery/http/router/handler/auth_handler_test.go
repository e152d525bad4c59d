package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/http/session"
	"gatekeeper/internal/delivery/http/validator"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/usecase"
)

// stubAuthUsecase returns canned results for handler tests.
type stubAuthUsecase struct {
	identity *entity.Identity
	err      error
}

func (s *stubAuthUsecase) SignUp(ctx context.Context, input *usecase.SignUpInput) (*usecase.SignUpOutput, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &usecase.SignUpOutput{Identity: s.identity}, nil
}

func (s *stubAuthUsecase) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &usecase.LoginOutput{Token: "a.signed.token", Identity: s.identity}, nil
}

func testTransport() *session.Transport {
	cfg := &config.Config{}
	cfg.JWT.TTL = time.Hour

	return session.NewTransport(cfg)
}

func stubIdentity() *entity.Identity {
	return &entity.Identity{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$secret",
		Roles:        entity.DefaultRoles(),
		CreatedAt:    time.Now(),
	}
}

func newAuthHandler(authUC usecase.AuthUsecase) *AuthHandler {
	return NewAuthHandler(authUC, nil, nil, testTransport(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postJSON(path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validator.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestAuthHandler_SignUp(t *testing.T) {
	identity := stubIdentity()
	h := newAuthHandler(&stubAuthUsecase{identity: identity})

	c, rec := postJSON("/auth/signup", `{"username":"alice","email":"alice@example.com","password":"s3cr3t-password"}`)
	require.NoError(t, h.SignUp(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, identity.ID.String())
	assert.Contains(t, body, `"username":"alice"`)
	assert.NotContains(t, body, "secret", "credential material must never appear in a response")
	assert.NotContains(t, body, "PasswordHash")
}

func TestAuthHandler_SignUpRejectsShortPassword(t *testing.T) {
	h := newAuthHandler(&stubAuthUsecase{identity: stubIdentity()})

	c, _ := postJSON("/auth/signup", `{"username":"alice","email":"alice@example.com","password":"short"}`)
	err := h.SignUp(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	identity := stubIdentity()
	h := newAuthHandler(&stubAuthUsecase{identity: identity})

	c, rec := postJSON("/auth/login", `{"login":"alice","password":"s3cr3t-password"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"a.signed.token"`)

	cookies := map[string]*http.Cookie{}
	for _, cookie := range rec.Result().Cookies() {
		cookies[cookie.Name] = cookie
	}
	require.Contains(t, cookies, session.TokenCookieName)
	assert.Equal(t, "a.signed.token", cookies[session.TokenCookieName].Value)
	require.Contains(t, cookies, session.IDCookieName)
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newAuthHandler(&stubAuthUsecase{})

	c, rec := postJSON("/auth/logout", "")
	require.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := map[string]*http.Cookie{}
	for _, cookie := range rec.Result().Cookies() {
		cookies[cookie.Name] = cookie
	}
	require.Contains(t, cookies, session.TokenCookieName)
	assert.Empty(t, cookies[session.TokenCookieName].Value)
	assert.Equal(t, -1, cookies[session.TokenCookieName].MaxAge)
	require.Contains(t, cookies, session.IDCookieName, "logout keeps the browser id alive")
}

func TestAuthHandler_VerifyEmailRequiresToken(t *testing.T) {
	h := newAuthHandler(&stubAuthUsecase{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.VerifyEmail(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

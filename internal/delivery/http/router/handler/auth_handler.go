// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/delivery/http/session"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/usecase"
)

// IdentityView is the outward projection of an identity. Credential material
// never appears here.
type IdentityView struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Roles           []string  `json:"roles"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewIdentityView maps a domain identity to its response shape.
func NewIdentityView(identity *entity.Identity) *IdentityView {
	return &IdentityView{
		ID:              identity.ID.String(),
		Username:        identity.Username,
		Email:           identity.Email,
		IsEmailVerified: identity.IsEmailVerified,
		Roles:           identity.Roles.ToStrings(),
		CreatedAt:       identity.CreatedAt,
	}
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	authUC         usecase.AuthUsecase
	oauthUC        usecase.OAuthUsecase
	verificationUC usecase.VerificationUsecase
	transport      *session.Transport
	logger         *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(
	authUC usecase.AuthUsecase,
	oauthUC usecase.OAuthUsecase,
	verificationUC usecase.VerificationUsecase,
	transport *session.Transport,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUC:         authUC,
		oauthUC:        oauthUC,
		verificationUC: verificationUC,
		transport:      transport,
		logger:         logger,
	}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// SignUp handles the registration request.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid signup input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.authUC.SignUp(c.Request().Context(), &usecase.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, NewIdentityView(output.Identity), "Signed up successfully")
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token    string        `json:"token"`
	Identity *IdentityView `json:"identity"`
}

// Login handles the password login request. The session token travels both in
// the body and in the Authentication cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.transport.Attach(c, output.Token)

	return response.Success(c, http.StatusOK, &loginResponse{
		Token:    output.Token,
		Identity: NewIdentityView(output.Identity),
	}, "Login successful")
}

// Logout clears the session token cookie. The browser session id survives on
// purpose.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.transport.Clear(c)

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"}, "Logout successful")
}

type oauthLoginRequest struct {
	Credential   string `json:"credential" validate:"required"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// OAuthLogin handles provider login, e.g. POST /auth/oauth/google with the
// provider's ID token as the credential.
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	provider := entity.Provider(c.Param("provider"))
	if !provider.IsValid() {
		return response.BadRequest(c, "INVALID_INPUT", "Unknown OAuth provider")
	}

	var req oauthLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid OAuth login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.oauthUC.OAuthLogin(c.Request().Context(), &usecase.OAuthLoginInput{
		Provider:     provider,
		Credential:   req.Credential,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.transport.Attach(c, output.Token)

	return response.Success(c, http.StatusOK, &loginResponse{
		Token:    output.Token,
		Identity: NewIdentityView(output.Identity),
	}, "OAuth login successful")
}

// VerifyEmail consumes a verification code from the query string.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	code := c.QueryParam("token")
	if code == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Verification token is required")
	}

	if err := h.verificationUC.VerifyEmail(c.Request().Context(), code); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Email verified"}, "Email verified successfully")
}

// ResendVerification issues a fresh verification mail for the authenticated identity.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	identityID, err := IdentityIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.verificationUC.RequestEmailVerification(c.Request().Context(), identityID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Verification email sent"}, "Verification email sent")
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword requests a password reset mail. The response is identical
// whether or not the address has an account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid forgot password input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.verificationUC.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "If the address has an account, a reset email is on its way"}, "Password reset requested")
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ResetPassword consumes a reset code and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset password input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.verificationUC.ResetPassword(c.Request().Context(), &usecase.ResetPasswordInput{
		Code:        req.Token,
		NewPassword: req.Password,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Password updated"}, "Password reset successfully")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

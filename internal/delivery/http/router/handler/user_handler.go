package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/delivery/http/session"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/usecase"
)

// IdentityIDFromContext reads the authenticated principal's id set by the
// auth middleware.
func IdentityIDFromContext(c echo.Context) (uuid.UUID, error) {
	identityID, ok := c.Get(middleware.ContextKeyIdentityID).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.Wrap(domainerrors.ErrUnauthorized, "missing principal in request context")
	}

	return identityID, nil
}

// UserHandler holds dependencies for profile handlers.
type UserHandler struct {
	userUC    usecase.UserUsecase
	transport *session.Transport
	logger    *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(userUC usecase.UserUsecase, transport *session.Transport, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUC:    userUC,
		transport: transport,
		logger:    logger,
	}
}

// Me returns the authenticated identity's profile.
func (h *UserHandler) Me(c echo.Context) error {
	identityID, err := IdentityIDFromContext(c)
	if err != nil {
		return err
	}

	identity, err := h.userUC.GetProfile(c.Request().Context(), identityID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, NewIdentityView(identity), "Profile retrieved successfully")
}

type updateProfileRequest struct {
	Username        *string `json:"username" validate:"omitempty,min=2,max=64"`
	Email           *string `json:"email" validate:"omitempty,email"`
	NewPassword     *string `json:"newPassword" validate:"omitempty,min=8,max=128"`
	CurrentPassword string  `json:"currentPassword"`
}

// UpdateProfile applies a partial profile update. Email and password changes
// require the current password.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	identityID, err := IdentityIDFromContext(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile update input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.userUC.UpdateProfile(c.Request().Context(), &usecase.UpdateProfileInput{
		IdentityID:      identityID,
		Username:        req.Username,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, NewIdentityView(identity), "Profile updated successfully")
}

// Deactivate soft deletes the authenticated identity and ends the session.
func (h *UserHandler) Deactivate(c echo.Context) error {
	identityID, err := IdentityIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.userUC.Deactivate(c.Request().Context(), identityID); err != nil {
		return errors.WithStack(err)
	}

	h.transport.Clear(c)

	return response.Success(c, http.StatusOK, map[string]string{"message": "Account deactivated"}, "Account deactivated successfully")
}

// AdminOverview is a role-gated endpoint proving admin access works end to end.
func (h *UserHandler) AdminOverview(c echo.Context) error {
	username, _ := c.Get(middleware.ContextKeyUsername).(string)

	return response.Success(c, http.StatusOK, map[string]string{
		"message": "admin access granted",
		"actor":   username,
	}, "Admin overview retrieved")
}

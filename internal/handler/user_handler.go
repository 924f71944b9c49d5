package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"authsvc/internal/auth"
	"authsvc/internal/errors"
	"authsvc/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	svc    service.UserService
	logger *logrus.Logger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Me godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token",
			Code:  "INVALID_TOKEN",
		})
	}
	id, err := uuid.Parse(principal.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token subject",
			Code:  "INVALID_TOKEN",
		})
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, user)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"authsvc/internal/auth"
	"authsvc/internal/errors"
	"authsvc/internal/service"
)

// AuthHandler handles signup, login and identity endpoints.
type AuthHandler struct {
	signupService   service.SignupService
	authService     service.AuthService
	identityService service.IdentityService
	logger          *logrus.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	signupService service.SignupService,
	authService service.AuthService,
	identityService service.IdentityService,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		signupService:   signupService,
		authService:     authService,
		identityService: identityService,
		logger:          logger,
	}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Username       string `json:"username,omitempty" validate:"omitempty,max=255"`
	Realm          string `json:"realm,omitempty" validate:"omitempty,max=255"`
	CustomProperty string `json:"customProperty,omitempty" validate:"omitempty,max=255"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.signupService.Register(c.Request().Context(), service.SignupInput{
		Email:          req.Email,
		Password:       req.Password,
		Username:       req.Username,
		Realm:          req.Realm,
		CustomProperty: req.CustomProperty,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, user)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// length rules apply at signup only; a short password is just a wrong one here
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// WhoAmI godoc
// @Summary Return the caller's identity
// @Tags auth
// @Produce plain
// @Security BearerAuth
// @Success 200 {string} string
// @Failure 401 {object} errors.ErrorResponse
// @Router /whoAmI [get]
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token",
			Code:  "INVALID_TOKEN",
		})
	}
	return c.String(http.StatusOK, h.identityService.WhoAmI(principal))
}

// respondError maps err to its client-visible form. Internal failures are
// logged in full and answered with a generic message.
func respondError(c echo.Context, logger *logrus.Logger, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"path":       c.Path(),
		}).WithError(err).Error("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

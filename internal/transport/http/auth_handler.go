package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/password-reset-api/internal/metrics"
	"github.com/njprem/password-reset-api/internal/service"
	"github.com/njprem/password-reset-api/internal/util"
)

const (
	msgInvalidBody = "Invalid request body."

	msgRegistered      = "User registered successfully!"
	msgEmailTaken      = "User with this email already exists."
	msgRegisterFailed  = "Error registering user."
	msgLoggedIn        = "Login successful."
	msgBadCredentials  = "Invalid email or password."
	msgLoginFailed     = "Error logging in."
	msgResetLinkSent   = "If a user with that email exists, a password reset link has been sent."
	msgMailUnavailable = "Email service is currently unavailable. Please try again later."
	msgForgotFailed    = "Error initiating password reset process."
	msgPasswordReset   = "Your password has been successfully reset!"
	msgBadResetToken   = "Invalid or expired password reset token."
	msgResetFailed     = "Error resetting password."
	msgPasswordChanged = "Your password has been changed."
	msgChangeFailed    = "Error changing password."
)

type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

// RegisterAuth mounts the auth routes at the root and again under /api.
func RegisterAuth(e *echo.Echo, auth *service.AuthService, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &AuthHandler{auth: auth, log: log}

	for _, g := range []*echo.Group{e.Group(""), e.Group("/api")} {
		g.POST("/register", h.register)
		g.POST("/login", h.login)
		g.POST("/forgot-password", h.forgotPassword)
		g.POST("/reset-password", h.resetPassword)
		g.POST("/change-password", h.changePassword)
	}
}

// register godoc
// @Summary Register a user
// @Accept json
// @Produce json
// @Param payload body RegisterRequest true "Credentials"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 409 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /register [post]
func (h *AuthHandler) register(c echo.Context) error {
	const op = "register"
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, msgInvalidBody, nil)
	}

	_, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.respond(c, op, http.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, service.ErrEmailAlreadyUsed):
			return h.respond(c, op, http.StatusConflict, msgEmailTaken, nil)
		default:
			return h.respond(c, op, http.StatusInternalServerError, msgRegisterFailed, err)
		}
	}
	return h.respond(c, op, http.StatusCreated, msgRegistered, nil)
}

// login godoc
// @Summary Verify credentials
// @Accept json
// @Produce json
// @Param payload body LoginRequest true "Credentials"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 401 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /login [post]
func (h *AuthHandler) login(c echo.Context) error {
	const op = "login"
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, msgInvalidBody, nil)
	}

	_, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.respond(c, op, http.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			return h.respond(c, op, http.StatusUnauthorized, msgBadCredentials, nil)
		default:
			return h.respond(c, op, http.StatusInternalServerError, msgLoginFailed, err)
		}
	}
	return h.respond(c, op, http.StatusOK, msgLoggedIn, nil)
}

// forgotPassword godoc
// @Summary Request a password reset link
// @Description The response is identical whether or not the email is registered.
// @Accept json
// @Produce json
// @Param payload body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /forgot-password [post]
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	const op = "forgot_password"
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, msgInvalidBody, nil)
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.respond(c, op, http.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, service.ErrEmailServiceUnavailable):
			return h.respond(c, op, http.StatusInternalServerError, msgMailUnavailable, err)
		default:
			return h.respond(c, op, http.StatusInternalServerError, msgForgotFailed, err)
		}
	}
	return h.respond(c, op, http.StatusOK, msgResetLinkSent, nil)
}

// resetPassword godoc
// @Summary Set a new password with a reset token
// @Accept json
// @Produce json
// @Param payload body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /reset-password [post]
func (h *AuthHandler) resetPassword(c echo.Context) error {
	const op = "reset_password"
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, msgInvalidBody, nil)
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.respond(c, op, http.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			return h.respond(c, op, http.StatusBadRequest, msgBadResetToken, nil)
		default:
			return h.respond(c, op, http.StatusInternalServerError, msgResetFailed, err)
		}
	}
	return h.respond(c, op, http.StatusOK, msgPasswordReset, nil)
}

// changePassword godoc
// @Summary Change the password of a user who knows the current one
// @Accept json
// @Produce json
// @Param payload body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 401 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /change-password [post]
func (h *AuthHandler) changePassword(c echo.Context) error {
	const op = "change_password"
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, msgInvalidBody, nil)
	}

	err := h.auth.ChangePassword(c.Request().Context(), req.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return h.respond(c, op, http.StatusBadRequest, verr.Message, nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			return h.respond(c, op, http.StatusUnauthorized, msgBadCredentials, nil)
		default:
			return h.respond(c, op, http.StatusInternalServerError, msgChangeFailed, err)
		}
	}
	return h.respond(c, op, http.StatusOK, msgPasswordChanged, nil)
}

// respond writes the message body and records the outcome. cause is logged,
// never returned to the client.
func (h *AuthHandler) respond(c echo.Context, op string, status int, message string, cause error) error {
	metrics.ObserveAuth(op, outcome(status))
	if cause != nil {
		h.log.Error(op+" failed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Int("status", status),
			zap.Error(cause),
		)
	}
	return c.JSON(status, util.Message(message))
}

func outcome(status int) string {
	switch {
	case status < 300:
		return "success"
	case status == http.StatusBadRequest:
		return "rejected"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/auth"
)

// AuthHandler handles registration, login and the password lifecycle
type AuthHandler struct {
	authService  *auth.Service
	metrics      *middleware.Metrics
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. metrics may be nil.
func NewAuthHandler(authService *auth.Service, metrics *middleware.Metrics, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		metrics:      metrics,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Register handles POST /api/v1/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusCreated, session)
}

// Login handles POST /api/v1/login and its admin and tutor aliases
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusOK, session)
}

// Logout handles GET /api/v1/logout. Tokens stay valid until they expire;
// this only removes the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, http.StatusOK, "Logged Out")
}

// ForgotPassword handles POST /api/v1/password/forgot
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	h.recordReset(err)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Email sent to "+model.NormalizeEmail(req.Email)+" successfully")
}

// ResetPassword handles PUT /api/v1/password/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.ResetPassword(r.Context(), req.OTP, req.Password, req.ConfirmPassword)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusOK, session)
}

// UpdatePassword handles PUT /api/v1/password/update
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.UpdatePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.sendSession(w, http.StatusOK, session)
}

// sendSession sets the token cookie and writes the session body
func (h *AuthHandler) sendSession(w http.ResponseWriter, status int, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, status, response.AuthResponseFromSession(session))
}

func (h *AuthHandler) recordReset(err error) {
	outcome := "sent"
	switch {
	case err == nil:
	case errors.Is(err, model.ErrUserNotFound):
		outcome = "unknown_email"
	case errors.Is(err, auth.ErrDeliveryFailed):
		outcome = "delivery_failed"
		h.logger.Warn("reset code delivery failed", slog.Any("error", err))
	case model.IsValidationError(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	if h.metrics != nil {
		h.metrics.ResetRequested(outcome)
	}
}

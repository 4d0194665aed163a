package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/auth"
)

// ErrorResponse is the JSON envelope for every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeVideoNotFound      = "VIDEO_NOT_FOUND"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeReviewNotFound     = "REVIEW_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidChallenge   = "INVALID_CHALLENGE"
	CodeChallengeExpired   = "CHALLENGE_EXPIRED"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeRateLimited        = "RATE_LIMITED"
	CodeDeliveryFailed     = "DELIVERY_FAILED"
	CodeUpstreamError      = "UPSTREAM_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an error code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: he.code, Message: he.message})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, CodeInvalidRequest, ve.Message}
	}

	switch {
	// Not found
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, CodeUserNotFound, "User not found"}
	case errors.Is(err, model.ErrVideoNotFound):
		return &httpError{http.StatusNotFound, CodeVideoNotFound, "Video not found"}
	case errors.Is(err, model.ErrProductNotFound):
		return &httpError{http.StatusNotFound, CodeProductNotFound, "Product not found"}
	case errors.Is(err, model.ErrReviewNotFound):
		return &httpError{http.StatusNotFound, CodeReviewNotFound, "Review not found"}

	// Authentication and authorization
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password"}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired session"}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, CodeForbidden, "Not allowed to access this resource"}

	// Password reset
	case errors.Is(err, auth.ErrInvalidChallenge):
		return &httpError{http.StatusBadRequest, CodeInvalidChallenge, "Reset password code is invalid or has been used"}
	case errors.Is(err, auth.ErrChallengeExpired):
		return &httpError{http.StatusBadRequest, CodeChallengeExpired, "Reset password code has expired"}
	case errors.Is(err, auth.ErrSecretMismatch):
		return &httpError{http.StatusBadRequest, CodePasswordMismatch, "Password does not match"}

	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, model.ErrEmailTaken):
		return &httpError{http.StatusConflict, CodeEmailExists, "Email already registered"}

	// Upstream collaborators
	case errors.Is(err, auth.ErrDeliveryFailed):
		return &httpError{http.StatusInternalServerError, CodeDeliveryFailed, "Could not send the reset code, try again later"}
	case errors.Is(err, media.ErrUploadFailed):
		return &httpError{http.StatusInternalServerError, CodeUpstreamError, "Media service unavailable"}

	default:
		return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest, message}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Please login to access this resource"}
}

// NewForbiddenError creates a forbidden error naming the caller's role
func NewForbiddenError(role model.Role) error {
	return &httpError{http.StatusForbidden, CodeForbidden, "Role: " + string(role) + " is not allowed to access this resource"}
}

// NewNotFoundError creates a not found error for unmatched routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, CodeNotFound, "Resource not found"}
}

// NewRateLimitedError creates a too many requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, CodeRateLimited, "Too many requests, try again later"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}

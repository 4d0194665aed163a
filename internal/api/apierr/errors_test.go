package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/auth"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", model.NewValidationError("email", "Please enter your email"), http.StatusBadRequest, CodeInvalidRequest},
		{"wrapped validation", fmt.Errorf("register: %w", model.NewValidationError("name", "x")), http.StatusBadRequest, CodeInvalidRequest},
		{"user not found", fmt.Errorf("lookup: %w", model.ErrUserNotFound), http.StatusNotFound, CodeUserNotFound},
		{"video not found", model.ErrVideoNotFound, http.StatusNotFound, CodeVideoNotFound},
		{"product not found", model.ErrProductNotFound, http.StatusNotFound, CodeProductNotFound},
		{"review not found", model.ErrReviewNotFound, http.StatusNotFound, CodeReviewNotFound},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"invalid session", fmt.Errorf("%w: token is expired", auth.ErrInvalidSession), http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"invalid challenge", auth.ErrInvalidChallenge, http.StatusBadRequest, CodeInvalidChallenge},
		{"challenge expired", auth.ErrChallengeExpired, http.StatusBadRequest, CodeChallengeExpired},
		{"mismatch", auth.ErrSecretMismatch, http.StatusBadRequest, CodePasswordMismatch},
		{"email exists", auth.ErrEmailExists, http.StatusConflict, CodeEmailExists},
		{"email taken", model.ErrEmailTaken, http.StatusConflict, CodeEmailExists},
		{"delivery", fmt.Errorf("%w: %w", auth.ErrDeliveryFailed, errors.New("smtp down")), http.StatusInternalServerError, CodeDeliveryFailed},
		{"upload", fmt.Errorf("%w: timeout", media.ErrUploadFailed), http.StatusInternalServerError, CodeUpstreamError},
		{"rate limited", NewRateLimitedError(), http.StatusTooManyRequests, CodeRateLimited},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestValidationMessageIsSurfaced(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, model.NewValidationError("password", "Password should be greater than 8 characters"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Password should be greater than 8 characters", resp.Message)
}

func TestInternalErrorsDoNotLeakCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("db error: connection refused to 10.0.0.5"))
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

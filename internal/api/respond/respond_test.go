package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlight-api/starlight-be/internal/apperrors"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "could not validate credentials"},
		{"inactive account", apperrors.ErrInactiveAccount, http.StatusBadRequest, "inactive_account", "inactive user"},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded, please try again later"},
		{"conflict", fmt.Errorf("%w: users_email_key", apperrors.ErrConflict), http.StatusConflict, "conflict", "username or email already registered"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found", "resource not found"},
		{"upstream", fmt.Errorf("%w: s3 put: timeout", apperrors.ErrUpstream), http.StatusBadGateway, "upstream_error", "a backing service is unavailable"},
		{"validation", apperrors.NewValidation("full_name too long"), http.StatusBadRequest, "validation_error", "full_name too long"},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			Error(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.Equal(t, "/api/v1/users/me", body.Error.Path)
		})
	}
}

func TestErrorNeverLeaksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Error(rec, req, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	Fail(rec, req, http.StatusBadRequest, "invalid_host", "invalid host header")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_host", body.Error.Code)
	assert.Equal(t, "/health", body.Error.Path)
}

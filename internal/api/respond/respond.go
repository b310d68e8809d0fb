// Package respond centralizes JSON responses and the mapping from the
// shared error taxonomy to HTTP status codes. Unexpected errors are
// logged with their correlation id and answered with a generic 500
// that never leaks internals.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/apperrors"
)

// ErrorBody is the structured error envelope returned for all 4xx/5xx.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// JSON writes a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Error maps err onto the taxonomy and writes the structured response.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("Request failed")
		message = "internal server error"
	}

	JSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Path:    r.URL.Path,
	}})
}

// Fail writes an explicit error code and message with the given status.
func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Path:    r.URL.Path,
	}})
}

func classify(err error) (int, string, string) {
	var ve *apperrors.ValidationError
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "could not validate credentials"
	case errors.Is(err, apperrors.ErrInactiveAccount):
		return http.StatusBadRequest, "inactive_account", "inactive user"
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded, please try again later"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict", "username or email already registered"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway, "upstream_error", "a backing service is unavailable"
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error", ve.Message
	default:
		return http.StatusInternalServerError, "internal_error", ""
	}
}

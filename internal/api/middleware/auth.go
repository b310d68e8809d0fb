package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/starlight-api/starlight-be/internal/apperrors"
	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/models"
	"github.com/starlight-api/starlight-be/internal/services"
)

// RequireUser resolves the bearer token to an active user and stashes
// it in the request context. Missing or invalid credentials, unknown
// subjects, and inactive accounts all short-circuit the request.
func RequireUser(tokens *auth.TokenService, users services.UserServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalUser resolves the bearer token when present but lets
// anonymous requests through with no user in context.
func OptionalUser(tokens *auth.TokenService, users services.UserServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, tokens *auth.TokenService, users services.UserServiceProvider) (*models.User, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	subject, err := tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := users.GetByUsername(r.Context(), subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package middleware

import (
	"context"

	"github.com/starlight-api/starlight-be/internal/models"
)

type contextKey string

const (
	correlationIDKey = contextKey("correlationID")
	userKey          = contextKey("currentUser")
)

// CorrelationID returns the request's correlation id, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithUser stashes the authenticated user in the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user stashed by RequireUser or
// OptionalUser, or nil when the request is anonymous.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

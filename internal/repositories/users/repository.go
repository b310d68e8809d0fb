// Package users provides data access for the users table.
package users

import (
	"context"

	"github.com/starlight-api/starlight-be/internal/models"
)

// Repository defines the persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName string) error
	UpdateOAuthLink(ctx context.Context, id int64, provider, oauthID *string) error
	CountByStatus(ctx context.Context) (total, active int64, err error)
}

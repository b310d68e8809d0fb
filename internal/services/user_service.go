package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/apperrors"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/cache"
	"github.com/starlight-api/starlight-be/internal/models"
	"github.com/starlight-api/starlight-be/internal/oauth"
	"github.com/starlight-api/starlight-be/internal/repositories/users"
	"github.com/starlight-api/starlight-be/internal/tasks"
)

// CacheTagUsers groups all user-derived cache entries for bulk invalidation.
const CacheTagUsers = "users"

const statsCacheKey = "users:stats"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, identity *oauth.Identity) (*models.User, error)
	LinkOAuth(ctx context.Context, user *models.User, identity *oauth.Identity) error
	UnlinkOAuth(ctx context.Context, user *models.User, provider string) error
	Stats(ctx context.Context) (*models.UserStats, error)
	RefreshStats(ctx context.Context) error
}

// UserService provides business logic for user accounts.
type UserService struct {
	repo       users.Repository
	cache      *cache.Cache
	dispatcher tasks.Dispatcher
}

// NewUserService creates a new UserService.
func NewUserService(repo users.Repository, c *cache.Cache, dispatcher tasks.Dispatcher) *UserService {
	return &UserService{repo: repo, cache: c, dispatcher: dispatcher}
}

// Register creates a new account with a hashed password, queues the
// welcome email and invalidates user-derived cache entries.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, apperrors.NewValidation("username and email are required")
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: sql.NullString{String: hashed, Valid: true},
		IsActive:       true,
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.DispatchEmail(ctx, tasks.EmailPayload{
		Recipient: user.Email,
		Subject:   "Welcome to Starlight",
		Body:      fmt.Sprintf("Hi %s, your account is ready.", user.Username),
	})
	s.cache.InvalidateByTag(ctx, CacheTagUsers)

	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.HasPassword() || !auth.CheckPassword(user.HashedPassword.String, password) {
		return nil, apperrors.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	return user, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername retrieves a single user by their username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile updates mutable profile fields and invalidates the
// user cache tag.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, fullName string) (*models.User, error) {
	if err := s.repo.UpdateProfile(ctx, id, fullName); err != nil {
		return nil, err
	}
	s.cache.InvalidateByTag(ctx, CacheTagUsers)
	return s.repo.GetByID(ctx, id)
}

// FindOrCreateFromOAuth resolves an OAuth callback identity to a local
// account: by provider binding first, then by email (auto-linking a
// matching account), otherwise creating a new OAuth-only user.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, identity *oauth.Identity) (*models.User, error) {
	user, err := s.repo.GetByOAuth(ctx, identity.Provider, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user, err = s.repo.GetByEmail(ctx, identity.Email)
	if err == nil {
		if !user.OAuthProvider.Valid {
			if err := s.repo.UpdateOAuthLink(ctx, user.ID, &identity.Provider, &identity.ID); err != nil {
				return nil, err
			}
			user.OAuthProvider = sql.NullString{String: identity.Provider, Valid: true}
			user.OAuthID = sql.NullString{String: identity.ID, Valid: true}
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// First sign-in through this provider: the account has no password
	// and authenticates only via the linked provider.
	user, err = s.repo.Create(ctx, &models.User{
		Username:      identity.Email,
		Email:         identity.Email,
		FullName:      sql.NullString{String: identity.Name, Valid: identity.Name != ""},
		IsActive:      true,
		OAuthProvider: sql.NullString{String: identity.Provider, Valid: true},
		OAuthID:       sql.NullString{String: identity.ID, Valid: true},
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateByTag(ctx, CacheTagUsers)
	return user, nil
}

// LinkOAuth binds a provider identity to an existing account, refusing
// identities already bound to a different user.
func (s *UserService) LinkOAuth(ctx context.Context, user *models.User, identity *oauth.Identity) error {
	existing, err := s.repo.GetByOAuth(ctx, identity.Provider, identity.ID)
	if err == nil && existing.ID != user.ID {
		return apperrors.NewValidation("OAuth account already linked to another user")
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return s.repo.UpdateOAuthLink(ctx, user.ID, &identity.Provider, &identity.ID)
}

// UnlinkOAuth clears a provider binding. An account whose only
// credential is the provider link cannot unlink it.
func (s *UserService) UnlinkOAuth(ctx context.Context, user *models.User, provider string) error {
	if !user.OAuthProvider.Valid || user.OAuthProvider.String != provider {
		return apperrors.NewValidation("OAuth provider not linked to this account")
	}
	if !user.HasPassword() {
		return apperrors.NewValidation("cannot unlink the only sign-in method; set a password first")
	}
	return s.repo.UpdateOAuthLink(ctx, user.ID, nil, nil)
}

// Stats returns aggregate user counts, served from cache when present.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	if data, ok := s.cache.Get(ctx, statsCacheKey); ok {
		stats := &models.UserStats{}
		if err := json.Unmarshal(data, stats); err == nil {
			return stats, nil
		}
		log.Warn().Msg("Discarding undecodable cached user stats")
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RefreshStats recomputes and recaches the user stats. Called
// periodically by the worker.
func (s *UserService) RefreshStats(ctx context.Context) error {
	_, err := s.computeStats(ctx)
	return err
}

func (s *UserService) computeStats(ctx context.Context) (*models.UserStats, error) {
	total, active, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.UserStats{TotalUsers: total, ActiveUsers: active}

	if data, err := json.Marshal(stats); err == nil {
		s.cache.Set(ctx, statsCacheKey, data, 5*time.Minute, CacheTagUsers)
	}
	return stats, nil
}

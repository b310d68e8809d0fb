package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/starlight-api/starlight-be/internal/apperrors"
	"github.com/starlight-api/starlight-be/internal/database"
	"github.com/starlight-api/starlight-be/internal/models"
)

const userColumns = "id, username, email, hashed_password, full_name, is_active, is_superuser, oauth_provider, oauth_id, created_at"

// PostgresRepository implements Repository against PostgreSQL.
type PostgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row and returns it with its assigned ID.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, email, hashed_password, full_name, is_active, is_superuser, oauth_provider, oauth_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.HashedPassword, user.FullName,
		user.IsActive, user.IsSuperuser, user.OAuthProvider, user.OAuthID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// GetByID retrieves a single user by their surrogate key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

// GetByUsername retrieves a single user by their unique username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "WHERE username = $1", username)
}

// GetByEmail retrieves a single user by their unique email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "WHERE email = $1", email)
}

// GetByOAuth retrieves the user linked to the given provider identity.
func (r *PostgresRepository) GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error) {
	return r.getOne(ctx, "WHERE oauth_provider = $1 AND oauth_id = $2", provider, oauthID)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users %s", userColumns, where)

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.FullName,
		&user.IsActive, &user.IsSuperuser, &user.OAuthProvider, &user.OAuthID, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// UpdateProfile updates a user's mutable profile fields.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, fullName string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET full_name = $1 WHERE id = $2", fullName, id)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateOAuthLink sets or clears a user's OAuth provider binding.
// Passing nil for both fields unlinks the account.
func (r *PostgresRepository) UpdateOAuthLink(ctx context.Context, id int64, provider, oauthID *string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET oauth_provider = $1, oauth_id = $2 WHERE id = $3", provider, oauthID, id)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// CountByStatus returns total and active user counts.
func (r *PostgresRepository) CountByStatus(ctx context.Context) (int64, int64, error) {
	var total, active int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM users",
	).Scan(&total, &active)
	if err != nil {
		return 0, 0, mapError(err)
	}
	return total, active, nil
}

// mapError converts driver errors to the shared taxonomy. Unique
// violations become ErrConflict so handlers answer 409, not 500.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

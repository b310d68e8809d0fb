package models

import (
	"database/sql"
	"time"
)

// User represents a user account in the system.
//
// HashedPassword is null for accounts created purely through an OAuth
// provider; such accounts authenticate only via their linked provider.
type User struct {
	ID             int64          `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	HashedPassword sql.NullString `json:"-"` // Never expose this to the client
	FullName       sql.NullString `json:"-"`
	IsActive       bool           `json:"is_active"`
	IsSuperuser    bool           `json:"is_superuser"`
	OAuthProvider  sql.NullString `json:"-"`
	OAuthID        sql.NullString `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.HashedPassword.Valid && u.HashedPassword.String != ""
}

// Profile is the client-facing representation of a User.
type Profile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	IsActive      bool   `json:"is_active"`
	OAuthProvider string `json:"oauth_provider,omitempty"`
}

// ToProfile converts a User into its client-facing form.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName.String,
		IsActive:      u.IsActive,
		OAuthProvider: u.OAuthProvider.String,
	}
}

// UserStats holds aggregate user counts, cached under the "users" tag.
type UserStats struct {
	TotalUsers  int64 `json:"total_users"`
	ActiveUsers int64 `json:"active_users"`
}

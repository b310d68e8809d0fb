package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/starlight-api/starlight-be/internal/apperrors"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the password policy: minimum
// length plus at least one uppercase, lowercase, digit and special
// character.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewValidation("password must be at least %d characters", MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return apperrors.NewValidation("password must contain an uppercase letter")
	case !hasLower:
		return apperrors.NewValidation("password must contain a lowercase letter")
	case !hasDigit:
		return apperrors.NewValidation("password must contain a number")
	case !hasSpecial:
		return apperrors.NewValidation("password must contain a special character")
	}
	return nil
}

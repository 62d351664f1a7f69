package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login does not match the admin credential.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AdminCredential is the single admin login. It is a placeholder mechanism:
// one username, one password, no users table.
type AdminCredential struct {
	username     string
	passwordHash string
}

// NewAdminCredential hashes the configured password once at startup.
// An empty password disables admin login entirely.
func NewAdminCredential(username, password string) (*AdminCredential, error) {
	if password == "" {
		return &AdminCredential{username: username}, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &AdminCredential{username: username, passwordHash: hash}, nil
}

// Enabled reports whether a password was configured.
func (c *AdminCredential) Enabled() bool {
	return c.passwordHash != ""
}

// Verify checks a username/password pair for an exact match.
func (c *AdminCredential) Verify(username, password string) error {
	if !c.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := CheckPasswordHash(password, c.passwordHash)
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

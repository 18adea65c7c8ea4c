// Package auth authenticates the single portfolio administrator and guards
// mutating routes with bearer tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is the admin account without its credential.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Authenticator checks admin credentials and issues tokens.
type Authenticator struct {
	user   User
	hash   []byte
	tokens *TokenManager
}

// NewAuthenticator creates an authenticator for the admin username with a
// bcrypt password hash.
func NewAuthenticator(username, passwordHash string, tokens *TokenManager) (*Authenticator, error) {
	if username == "" {
		return nil, errors.New("admin username must not be empty")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Authenticator{
		user:   User{ID: 1, Username: username, CreatedAt: time.Now().UTC()},
		hash:   []byte(passwordHash),
		tokens: tokens,
	}, nil
}

// Tokens returns the token manager.
func (a *Authenticator) Tokens() *TokenManager {
	return a.tokens
}

// Login verifies the credentials and returns a signed token.
func (a *Authenticator) Login(username, password string) (*AuthResponse, error) {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.user.Username)) == 1
	// Always run bcrypt so unknown usernames take as long as wrong passwords.
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !nameOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := a.tokens.Issue(a.user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, ExpiresAt: exp, User: a.user}, nil
}

package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is a registered account (immutable value object).
type User struct {
	id           string
	email        string
	name         string
	passwordHash []byte
	createdAt    time.Time
}

// New validates and creates a User. Email is lower-cased and trimmed.
func New(id, email, name string, passwordHash []byte, createdAt time.Time) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("user ID is required")
	}
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("invalid email %q", email)
	}
	if len(passwordHash) == 0 {
		return User{}, fmt.Errorf("password hash is required")
	}
	return User{
		id:           id,
		email:        email,
		name:         strings.TrimSpace(name),
		passwordHash: passwordHash,
		createdAt:    createdAt.UTC(),
	}, nil
}

// Reconstruct creates a User without validation (storage hydration).
func Reconstruct(id, email, name string, passwordHash []byte, createdAt time.Time) User {
	return User{id: id, email: email, name: name, passwordHash: passwordHash, createdAt: createdAt}
}

// NormalizeEmail lower-cases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ID returns the user identifier.
func (u *User) ID() string { return u.id }

// Email returns the normalized email.
func (u *User) Email() string { return u.email }

// Name returns the display name.
func (u *User) Name() string { return u.name }

// PasswordHash returns the bcrypt hash.
func (u *User) PasswordHash() []byte { return u.passwordHash }

// CreatedAt returns the registration time (UTC).
func (u *User) CreatedAt() time.Time { return u.createdAt }

// Identity is the authenticated principal extracted from a token.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

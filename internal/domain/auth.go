package domain

import (
	"context"
	"time"
)

// PasswordHasher hashes and verifies passwords with a one-way, salted algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrInvalidCredentials when password does not match hash.
	Compare(hash, password string) error
}

// Claims is the identity asserted by a session token.
type Claims struct {
	UserID    string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer mints signed, expiring session tokens.
type TokenIssuer interface {
	Issue(user *User) (string, error)
}

// AuthGuard verifies session tokens presented on protected endpoints.
// Verify returns ErrUnauthorized for any token that is malformed, tampered
// with, signed by another key, or expired.
type AuthGuard interface {
	Verify(token string) (*Claims, error)
}

// Registration is the content of an approval-request notification.
type Registration struct {
	Username    string
	Email       string
	PhoneNumber string
}

// Notifier delivers approval-request messages to the administrator.
type Notifier interface {
	NotifyRegistration(ctx context.Context, reg Registration) error
}

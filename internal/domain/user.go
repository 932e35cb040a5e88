package domain

import (
	"context"
	"time"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account in the approval workflow.
type User struct {
	ID           string
	Username     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Role         Role
	IsApproved   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanLogin reports whether the account has passed the approval gate.
// Admins bypass the gate regardless of their approval flag.
func (u *User) CanLogin() bool {
	return u.Role == RoleAdmin || u.IsApproved
}

// UserRepository defines persistence operations for users.
//
// Create returns ErrDuplicateAccount when the username or phone number is
// already taken. Lookups return ErrNotFound when no account matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error)
	ListPending(ctx context.Context) ([]User, error)
	SetApproved(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

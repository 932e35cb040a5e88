package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/msomdec/approval-gate/internal/domain"
)

// AccountService owns the account lifecycle: registration into the pending
// state, admin approval, and the approval-gated login.
type AccountService struct {
	users    domain.UserRepository
	hasher   domain.PasswordHasher
	tokens   domain.TokenIssuer
	notifier domain.Notifier

	phoneRegion        string
	uniformLoginErrors bool
}

// AccountOption customizes an AccountService.
type AccountOption func(*AccountService)

// WithPhoneRegion sets the region used to parse phone numbers written
// without a country code. Defaults to "US".
func WithPhoneRegion(region string) AccountOption {
	return func(s *AccountService) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

// WithUniformLoginErrors makes Login report unknown usernames as
// ErrInvalidCredentials and verify the password before the approval gate,
// so responses no longer reveal whether an account exists.
func WithUniformLoginErrors(enabled bool) AccountOption {
	return func(s *AccountService) {
		s.uniformLoginErrors = enabled
	}
}

// NewAccountService creates a new AccountService.
func NewAccountService(users domain.UserRepository, hasher domain.PasswordHasher, tokens domain.TokenIssuer, notifier domain.Notifier, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		notifier:    notifier,
		phoneRegion: "US",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token    string
	UserID   string
	Username string
	Role     domain.Role
}

type accountInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

func (in accountInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.PhoneNumber, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in credentialsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// Register creates a pending account and notifies the administrator.
// If the notification cannot be delivered the account is removed again and
// the registration fails.
func (s *AccountService) Register(ctx context.Context, username, email, phoneNumber, password string) (*domain.User, error) {
	user, err := s.newAccount(username, email, phoneNumber, password)
	if err != nil {
		return nil, err
	}
	user.Role = domain.RoleUser

	if err := s.create(ctx, user, password); err != nil {
		return nil, err
	}

	reg := domain.Registration{Username: user.Username, Email: user.Email, PhoneNumber: user.PhoneNumber}
	if err := s.notifier.NotifyRegistration(ctx, reg); err != nil {
		s.rollback(ctx, user)
		return nil, fmt.Errorf("notify admin: %w", err)
	}

	slog.Info("registration pending approval", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// CreateAdmin creates an approved admin account without notification.
func (s *AccountService) CreateAdmin(ctx context.Context, username, email, phoneNumber, password string) (*domain.User, error) {
	user, err := s.newAccount(username, email, phoneNumber, password)
	if err != nil {
		return nil, err
	}
	user.Role = domain.RoleAdmin
	user.IsApproved = true

	if err := s.create(ctx, user, password); err != nil {
		return nil, err
	}

	slog.Info("admin account created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// ListPending returns all accounts still awaiting approval.
func (s *AccountService) ListPending(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	return users, nil
}

// Approve marks the account as approved. Approving an approved account is a no-op.
func (s *AccountService) Approve(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.IsApproved {
		return user, nil
	}

	if err := s.users.SetApproved(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("approve user: %w", err)
	}
	user.IsApproved = true

	slog.Info("user approved", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks the approval gate and the password and issues a token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	in := credentialsInput{Username: strings.TrimSpace(username), Password: password}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && s.uniformLoginErrors {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if s.uniformLoginErrors {
		if err := s.checkPassword(user, password); err != nil {
			return nil, err
		}
		if !user.CanLogin() {
			return nil, domain.ErrPendingApproval
		}
	} else {
		if !user.CanLogin() {
			return nil, domain.ErrPendingApproval
		}
		if err := s.checkPassword(user, password); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func (s *AccountService) checkPassword(user *domain.User, password string) error {
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}

// newAccount validates presence of every field and builds the unsaved user.
func (s *AccountService) newAccount(username, email, phoneNumber, password string) (*domain.User, error) {
	in := accountInput{
		Username:    strings.TrimSpace(username),
		Email:       strings.TrimSpace(email),
		PhoneNumber: strings.TrimSpace(phoneNumber),
		Password:    password,
	}
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	return &domain.User{
		Username:    in.Username,
		Email:       in.Email,
		PhoneNumber: NormalizePhoneNumber(in.PhoneNumber, s.phoneRegion),
	}, nil
}

// create enforces phone number and username uniqueness, hashes the password,
// and stores the user. The store's unique indexes settle concurrent races.
func (s *AccountService) create(ctx context.Context, user *domain.User, password string) error {
	if _, err := s.users.GetByPhoneNumber(ctx, user.PhoneNumber); err == nil {
		return fmt.Errorf("%w: phone number is already registered", domain.ErrDuplicateAccount)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check phone number: %w", err)
	}

	if _, err := s.users.GetByUsername(ctx, user.Username); err == nil {
		return fmt.Errorf("%w: username is already taken", domain.ErrDuplicateAccount)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *AccountService) rollback(ctx context.Context, user *domain.User) {
	// The request context may already be cancelled.
	if err := s.users.Delete(context.WithoutCancel(ctx), user.ID); err != nil {
		slog.Error("roll back registration", "user_id", user.ID, "error", err)
		return
	}
	slog.Warn("registration rolled back after notification failure", "user_id", user.ID)
}

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrAlreadyExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// Writer persists new accounts. CreateAccount returns ErrAlreadyExists when
// the username is taken.
type Writer interface {
	CreateAccount(ctx context.Context, a *Account) error
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "account").Logger()}
}

// Authenticate resolves username/password to an active account. Only the
// bcrypt hash is compared; unknown users, inactive accounts and wrong
// passwords all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.Active || !CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.repo.TouchLastLogin(ctx, a.ID); err != nil {
		s.log.Warn().Err(err).Int64("account_id", a.ID).Msg("last login not recorded")
	}
	return a, nil
}

// Register hashes password and stores a new active account. Customers must
// reference a customer id; admins may not buy and use customer id 0.
func Register(ctx context.Context, w Writer, username, password, role string, customerID int64) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return nil, fmt.Errorf("username is required and password needs at least 8 characters")
	}
	switch role {
	case RoleCustomer:
		if customerID <= 0 {
			return nil, fmt.Errorf("customer accounts need a positive customer id")
		}
	case RoleAdmin:
		customerID = 0
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}
	a := &Account{
		CustomerID:   customerID,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := w.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

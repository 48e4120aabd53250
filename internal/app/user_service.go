package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/logging"
)

// UserService is the user directory: registration and credential checks.
type UserService struct {
	users  UserRepository
	hasher PasswordHasher
	log    logging.Logger
	now    func() time.Time
}

func NewUserService(users UserRepository, hasher PasswordHasher, log logging.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, log: log, now: time.Now}
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return s.users.FindByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, normalizeEmail(email))
}

// Register creates a user with a hashed password. An existing account is never touched.
func (s *UserService) Register(ctx context.Context, email, password string) (domain.User, error) {
	creds := domain.Credentials{Email: normalizeEmail(email), Password: password}
	if err := domain.ValidateCredentials(creds); err != nil {
		return domain.User{}, err
	}

	exists, err := s.users.ExistsByEmail(ctx, creds.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, domain.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user registered", "email", user.Email)
	return user, nil
}

// VerifyCredentials returns the user only when the email exists and the password matches.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (domain.User, error) {
	user, ok, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if !ok || !s.hasher.Compare(user.PasswordHash, password) {
		return domain.User{}, domain.ErrAuthenticationFailed
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

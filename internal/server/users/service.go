package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/aquawatch/aquawatch/internal/server/auth"
	"github.com/aquawatch/aquawatch/internal/server/config"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt digest compared against when the username
// does not exist, so the hash stage costs the same for known and unknown
// users.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Service struct {
	repo          Repository
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:          repo,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

// Register creates a new identity with a bcrypt-hashed password. A
// duplicate username surfaces as common.ErrUsernameTaken regardless of
// timing between concurrent registrations: the database constraint, not
// an application-level check, enforces uniqueness.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: string(hash),
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return nil, common.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Authenticate verifies username/password and returns the identity, or
// common.ErrInvalidCredentials. An unknown username still burns one
// bcrypt comparison so the hash stage does not reveal whether the user
// exists.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and mints a bearer token whose subject is the
// username.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", common.ErrInternal
	}

	return token, nil
}

// Resolve maps a verified token subject back to a live identity. The
// identity may have been removed after issuance; that case is
// common.ErrUnauthorized, never a crash.
func (s *Service) Resolve(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

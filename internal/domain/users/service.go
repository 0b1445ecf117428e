package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing
const BcryptCost = 12

// dummyHash is compared against when the email is unknown so login timing does
// not reveal which addresses have accounts.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mrintern-timing-guard"), bcrypt.MinCost)

// Service handles registration, login and admin bootstrap.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register creates a student account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	return s.create(ctx, input, auth.RoleStudent)
}

func (s *Service) create(ctx context.Context, input RegisterInput, role auth.Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, CreateParams{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         string(role),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account, or promotes an existing
// account with that email. It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if auth.IsAdmin(existing.Role) {
			return false, nil
		}
		if err := s.repo.UpdateRole(ctx, existing.ID, string(auth.RoleAdmin)); err != nil {
			return false, fmt.Errorf("promote admin: %w", err)
		}
		s.logger.Info().Str("user_id", existing.ID).Msg("existing user promoted to admin")
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	input := RegisterInput{Name: strings.TrimSpace(name), Email: email, Password: password}
	if input.Name == "" {
		input.Name = "Administrator"
	}
	if err := validation.Struct(input); err != nil {
		return false, err
	}
	if _, err := s.create(ctx, input, auth.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

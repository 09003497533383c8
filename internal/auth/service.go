package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService is the identity provider: it registers accounts and resolves
// credentials into bearer tokens. The cart/order core only ever sees the
// user id the middleware extracts from those tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenManager
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.NewValidationError("a valid email is required")
	}
	if name == "" {
		return nil, "", domain.NewValidationError("name is required")
	}
	if len(password) < 8 {
		return nil, "", domain.NewValidationError("password must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", domain.NewValidationError("email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

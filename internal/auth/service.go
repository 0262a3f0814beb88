package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

var (
	// ErrMissingFields is returned when a required credential field is empty.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidCredentials is returned when login and password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the username or email is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrForbidden is returned when a caller acts on an account that isn't theirs.
	ErrForbidden = errors.New("unauthorized")
)

// Service provides account operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	log       *zerolog.Logger
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		log:       logger,
	}
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(password) < 6 {
		return nil, ErrInvalidPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, email, hash)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (string, error) {
	user, err := s.authenticate(ctx, usernameOrEmail, password)
	if err != nil {
		return "", err
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// DeleteAccount removes userID and everything it owns. The caller must be the
// owner and present matching credentials again.
func (s *Service) DeleteAccount(ctx context.Context, authUserID, userID int64, usernameOrEmail, password string) (*store.User, error) {
	if authUserID != userID {
		return nil, ErrForbidden
	}

	user, err := s.authenticate(ctx, usernameOrEmail, password)
	if err != nil {
		return nil, err
	}
	if user.ID != userID {
		return nil, ErrForbidden
	}

	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("account deleted")
	return user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func (s *Service) authenticate(ctx context.Context, usernameOrEmail, password string) (*store.User, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByLogin(ctx, usernameOrEmail)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if ComparePassword(user.PasswordHash, password) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

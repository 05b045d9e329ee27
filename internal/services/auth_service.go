package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrUsernameTaken = fmt.Errorf("username already registered: %w", core.ErrUnauthorized)
	ErrEmailTaken    = fmt.Errorf("email already registered: %w", core.ErrUnauthorized)
)

type AuthService struct {
	repo   *storage.SQLiteRepository
	jwt    *auth.JWTManager
	logger *log.Logger
}

// Session is the authenticated response payload: a bearer token plus
// the profile it belongs to.
type Session struct {
	Token string
	User  core.User
}

func NewAuthService(repo *storage.SQLiteRepository, jwt *auth.JWTManager, logger *log.Logger) *AuthService {
	return &AuthService{repo: repo, jwt: jwt, logger: logger.WithComponent(log.ComponentAuth)}
}

// Register creates the user and logs them straight in.
func (s *AuthService) Register(ctx context.Context, username, email, password, firstName, lastName string) (Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return Session{}, core.Invalid("username", core.ErrEmptyName)
	}
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, core.Invalid("email", errors.New("invalid email address"))
	}
	if err := auth.ValidatePassword(password); err != nil {
		return Session{}, core.Invalid("password", err)
	}

	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return Session{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return Session{}, ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return Session{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return Session{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, core.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return s.session(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Session{}, auth.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, auth.ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, user.ID)
	return s.session(user)
}

// Verify resolves a bearer token to the user profile it was issued for.
func (s *AuthService) Verify(ctx context.Context, token string) (core.User, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, auth.ErrInvalidToken
		}
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) session(user core.User) (Session, error) {
	token, err := s.jwt.Generate(&user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	user.PasswordHash = ""
	return Session{Token: token, User: user}, nil
}

// Package service contains the business logic layer.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP)      → parses requests, writes responses
//	Service (business)  → validates, enforces rules, orchestrates
//	Repository (data)   → reads/writes the database
//
// Services receive repository interfaces, not concrete stores, so
// tests inject in-memory fakes and no service file imports the sqlite
// package.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/auth"
	"github.com/mlatour/codestash/internal/model"
	"github.com/mlatour/codestash/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 100
)

// AuthService handles registration and login for both credential flows
// (email+password, GitHub OAuth). Session issuance is the handler's
// job; this service only answers "who is this?".
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:          email,
		HashedPassword: hashed,
		Name:           name,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Duplicate email is a normal outcome, not a server fault —
		// let the conflict propagate without the error log.
		return nil, err
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("email", user.Email))

	return user, nil
}

// Login verifies an email+password pair.
//
// Every failure path — unknown email, wrong password — returns the same
// ErrUnauthorized with the same message, so login responses don't
// reveal which emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if user.HashedPassword == "" {
		// OAuth-only account; there is no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.HashedPassword, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return user, nil
}

// LoginGitHub upserts the account behind a completed OAuth exchange.
// GitHub users who hide their email get a noreply placeholder so the
// email column's uniqueness still holds.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(gh.Email))
	if email == "" {
		email = fmt.Sprintf("%s@users.noreply.github.com", strings.ToLower(gh.Login))
	}

	name := strings.TrimSpace(gh.Name)
	if name == "" {
		name = gh.Login
	}

	user := &model.User{
		Email:    email,
		Name:     name,
		GitHubID: gh.ID,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		s.logger.Error("github login upsert failed",
			slog.Int64("githubID", gh.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting github user: %w", err)
	}

	s.logger.Info("user logged in via github",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
	)

	return user, nil
}

// GetUser loads a user's profile, for /api/me.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Package services contains server-side business logic. This file implements
// UserService: the credential store operations, session token issuance and
// the per-user personalization prompt.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users with a hashed password
// - Login: verify credentials and mint a session token
// - Authorize/Logout: verify and revoke session tokens
// - SetPrompt/GetPrompt: the personalization prompt used by the diary pipeline
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *cryptox.PasswordHasher
	log         logging.Logger
}

// NewUserService constructs a UserService. db may be nil for the in-memory backend.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, hasher *cryptox.PasswordHasher, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		log:         log.With("module", "users"),
	}
}

// Register creates a new identity with an empty prompt. A taken username
// yields common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.NewValidationError("missing credentials")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, common.NewValidationError("password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// produce the same common.ErrInvalidCredentials after comparable work.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error reading user: %w", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies the credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Authorize verifies a bearer token. An empty token is common.ErrMissingToken.
func (s *UserService) Authorize(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}
	return s.tokens.Verify(ctx, token)
}

// Logout revokes the session token the claims were read from.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Info(ctx, "session revoked", "user_id", claims.UserID)
	return nil
}

// SetPrompt overwrites the caller's prompt; "" clears it.
func (s *UserService) SetPrompt(ctx context.Context, userID, prompt string) error {
	return s.repomanager.Users(s.db).SetPrompt(ctx, userID, prompt)
}

// GetPrompt returns the caller's prompt, or "" when none is stored.
func (s *UserService) GetPrompt(ctx context.Context, userID string) (string, error) {
	p, err := s.repomanager.Users(s.db).GetPrompt(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", err
	}
	return p, nil
}

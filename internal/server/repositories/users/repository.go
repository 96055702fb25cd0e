// Package users declares the credential store contract and its PostgreSQL
// and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophdiary/internal/server/models"
)

// Repository persists identities. Implementations must enforce username
// uniqueness atomically and report a taken name as common.ErrAlreadyExists.
type Repository interface {
	// Create stores user and fills in its ID and CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the identity with exactly this username or
	// common.ErrorNotFound.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// SetPrompt overwrites the personalization prompt. Absent identities
	// are silently ignored.
	SetPrompt(ctx context.Context, userID string, prompt string) error

	// GetPrompt returns the stored prompt or common.ErrorNotFound.
	GetPrompt(ctx context.Context, userID string) (string, error)
}

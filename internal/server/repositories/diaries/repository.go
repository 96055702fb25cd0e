// Package diaries declares the diary store contract and its PostgreSQL and
// in-memory implementations. Every read and write is scoped to the caller:
// a diary owned by someone else is indistinguishable from one that does not
// exist, both yield common.ErrorNotFound.
package diaries

import (
	"context"

	"github.com/dmitrijs2005/gophdiary/internal/server/models"
)

type Repository interface {
	// Create persists d and returns the store-assigned id.
	Create(ctx context.Context, d *models.Diary) (string, error)

	// ListByOwner returns the owner's diaries, newest first. Entries with
	// equal dates keep insertion order.
	ListByOwner(ctx context.Context, userID string) ([]models.DiaryListItem, error)

	Get(ctx context.Context, id string, userID string) (*models.Diary, error)
	UpdateTitle(ctx context.Context, id string, userID string, title string) error
	UpdateThumbnail(ctx context.Context, id string, userID string, thumbnail string) error
}

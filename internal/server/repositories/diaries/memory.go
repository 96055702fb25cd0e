package diaries

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps diaries in insertion order in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []*models.Diary
	byID  map[string]*models.Diary
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.Diary)}
}

func (r *MemoryRepository) Create(ctx context.Context, d *models.Diary) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *d
	stored.ID = uuid.NewString()
	r.items = append(r.items, &stored)
	r.byID[stored.ID] = &stored
	return stored.ID, nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, userID string) ([]models.DiaryListItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []models.DiaryListItem{}
	for _, d := range r.items {
		if d.UserID == userID {
			result = append(result, d.ListItem())
		}
	}
	slices.SortStableFunc(result, func(a, b models.DiaryListItem) int {
		return b.Date.Compare(a.Date)
	})
	return result, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string, userID string) (*models.Diary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return nil, common.ErrorNotFound
	}
	out := *d
	return &out, nil
}

func (r *MemoryRepository) UpdateTitle(ctx context.Context, id string, userID string, title string) error {
	return r.update(id, userID, func(d *models.Diary) { d.Title = title })
}

func (r *MemoryRepository) UpdateThumbnail(ctx context.Context, id string, userID string, thumbnail string) error {
	return r.update(id, userID, func(d *models.Diary) { d.Thumbnail = thumbnail })
}

func (r *MemoryRepository) update(id, userID string, apply func(*models.Diary)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return common.ErrorNotFound
	}
	apply(d)
	return nil
}

package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps identities in process memory. A single mutex makes
// the check-then-insert in Create atomic.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*models.User),
		byName: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	stored := *user
	stored.PasswordHash = append([]byte(nil), user.PasswordHash...)
	r.byID[stored.ID] = &stored
	r.byName[stored.UserName] = stored.ID

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) SetPrompt(ctx context.Context, userID string, prompt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[userID]; ok {
		u.Prompt = prompt
	}
	return nil
}

func (r *MemoryRepository) GetPrompt(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return u.Prompt, nil
}

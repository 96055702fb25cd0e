package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/diaries"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same process-local repositories on
// every call; the DBTX argument is ignored.
type MemoryRepositoryManager struct {
	users   *users.MemoryRepository
	diaries *diaries.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{
		users:   users.NewMemoryRepository(),
		diaries: diaries.NewMemoryRepository(),
	}
}

// RunMigrations is a no-op.
func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Diaries(db dbx.DBTX) diaries.Repository {
	return m.diaries
}

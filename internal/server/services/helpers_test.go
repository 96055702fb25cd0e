package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/diaries"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/revocations"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, conversation, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return conversation, nil
}

type fakeSynthesizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, summary string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "videos/fake.mp4", nil
}

type prefixLinker struct{}

func (prefixLinker) Link(ctx context.Context, ref string) (string, error) {
	return "https://cdn.example/" + ref, nil
}

// failingDiaries makes Create fail while the rest of the memory store works.
type failingDiaries struct {
	diaries.Repository
}

func (failingDiaries) Create(ctx context.Context, d *models.Diary) (string, error) {
	return "", errors.New("disk full")
}

type failingPersistManager struct {
	repomanager.RepositoryManager
}

func (m failingPersistManager) Diaries(db dbx.DBTX) diaries.Repository {
	return failingDiaries{m.RepositoryManager.Diaries(db)}
}

// --- constructors ---

type fixture struct {
	users   *UserService
	diaries *DiaryService
	sum     *fakeSummarizer
	synth   *fakeSynthesizer
	manager repomanager.RepositoryManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithManager(t, repomanager.NewMemoryRepositoryManager())
}

func newFixtureWithManager(t *testing.T, m repomanager.RepositoryManager) *fixture {
	t.Helper()
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour, time.Hour, revocations.NewMemoryRepository())
	hasher := cryptox.NewPasswordHasher(bcrypt.MinCost)

	f := &fixture{
		sum:     &fakeSummarizer{},
		synth:   &fakeSynthesizer{},
		manager: m,
	}
	f.users = NewUserService(nil, m, tokens, hasher, logging.Nop())
	f.diaries = NewDiaryService(nil, m, Capabilities{
		Summarizer:  f.sum,
		Synthesizer: f.synth,
		Linker:      prefixLinker{},
	}, nil, logging.Nop())
	return f
}

func (f *fixture) mustRegister(t *testing.T, name, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, password)
	if err != nil {
		t.Fatalf("Register(%q) error: %v", name, err)
	}
	return u
}

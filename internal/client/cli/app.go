package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophdiary/internal/client/api"
	"github.com/dmitrijs2005/gophdiary/internal/client/cache"
	"github.com/dmitrijs2005/gophdiary/internal/client/config"
)

// diaryAPI is the part of *api.Client the commands use.
type diaryAPI interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Prompt(ctx context.Context, token string) (string, error)
	SetPrompt(ctx context.Context, token, prompt string) error
	CreateDiary(ctx context.Context, token, conversation string) (api.Created, error)
	Diaries(ctx context.Context, token string) ([]api.ListItem, error)
	Diary(ctx context.Context, token, id string) (api.Diary, error)
	SetTitle(ctx context.Context, token, id, title string) error
	SetThumbnail(ctx context.Context, token, id, thumbnail string) error
	VideoURL(ctx context.Context, token, id string) (string, error)
}

// localStore is the part of *cache.Cache the commands use.
type localStore interface {
	Session(ctx context.Context) (string, string, error)
	SaveSession(ctx context.Context, username, token string) error
	ClearSession(ctx context.Context) error
	SaveList(ctx context.Context, owner string, items []cache.Item) error
	List(ctx context.Context, owner string) ([]cache.Item, error)
	Close() error
}

type App struct {
	api      diaryAPI
	store    localStore
	reader   *bufio.Reader
	out      io.Writer
	userName string
	token    string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := cache.Open(ctx, c.CachePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	client, err := api.New(c.ServerURL, api.WithTimeout(c.RequestTimeout))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := newApp(client, store, os.Stdin, os.Stdout)
	if err := a.restoreSession(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func newApp(client diaryAPI, store localStore, in io.Reader, out io.Writer) *App {
	return &App{api: client, store: store, reader: bufio.NewReader(in), out: out}
}

func (a *App) restoreSession(ctx context.Context) error {
	u, t, err := a.store.Session(ctx)
	if err != nil {
		return err
	}
	a.userName, a.token = u, t
	return nil
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()

	fmt.Fprintln(a.out, "GophDiary client. Type 'help' for commands.")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "guest"
	}
	return a.userName
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

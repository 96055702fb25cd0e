// Package cache is the client's local SQLite store. It keeps the session
// token and the last diary list fetched from the server so the list can
// still be shown while offline.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/client/cache/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyToken    = "token"
	keyUsername = "username"
)

type Cache struct {
	db      *sql.DB
	meta    *metadataRepository
	diaries *listRepository
}

// gooseUpContext is a seam for tests.
var gooseUpContext = goose.UpContext

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open opens (creating if needed) the cache at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache migrations: %w", err)
	}

	return &Cache{
		db:      db,
		meta:    newMetadataRepository(db),
		diaries: newListRepository(db),
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Session returns the stored username and token; both are empty when no
// session is cached.
func (c *Cache) Session(ctx context.Context) (username, token string, err error) {
	u, err := c.meta.Get(ctx, keyUsername)
	if err != nil {
		return "", "", err
	}
	t, err := c.meta.Get(ctx, keyToken)
	if err != nil {
		return "", "", err
	}
	return string(u), string(t), nil
}

// SaveSession stores the session. Switching to another username drops every
// cached list first.
func (c *Cache) SaveSession(ctx context.Context, username, token string) error {
	prev, err := c.meta.Get(ctx, keyUsername)
	if err != nil {
		return err
	}
	if string(prev) != username {
		if err := c.diaries.Clear(ctx); err != nil {
			return err
		}
	}
	if err := c.meta.Set(ctx, keyUsername, []byte(username)); err != nil {
		return err
	}
	return c.meta.Set(ctx, keyToken, []byte(token))
}

// ClearSession forgets the session and the cached list, which belongs to it.
func (c *Cache) ClearSession(ctx context.Context) error {
	if err := c.meta.Clear(ctx); err != nil {
		return err
	}
	return c.diaries.Clear(ctx)
}

// SaveList replaces the diary list cached for owner.
func (c *Cache) SaveList(ctx context.Context, owner string, items []Item) error {
	return c.diaries.Replace(ctx, owner, items)
}

// List returns owner's cached diary list in the order it was saved.
func (c *Cache) List(ctx context.Context, owner string) ([]Item, error) {
	return c.diaries.List(ctx, owner)
}

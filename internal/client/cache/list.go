package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/dbx"
)

// Item is a cached row of the diary list.
type Item struct {
	ID        string
	Title     string
	Date      time.Time
	Thumbnail string
}

type listRepository struct {
	db *sql.DB
}

func newListRepository(db *sql.DB) *listRepository {
	return &listRepository{db: db}
}

// Replace swaps owner's whole list atomically.
func (r *listRepository) Replace(ctx context.Context, owner string, items []Item) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM diaries WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("failed to clear diaries: %w", err)
		}
		for i, it := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO diaries (owner, position, id, title, date, thumbnail) VALUES (?, ?, ?, ?, ?, ?)`,
				owner, i, it.ID, it.Title, it.Date.UTC().Format(time.RFC3339Nano), it.Thumbnail)
			if err != nil {
				return fmt.Errorf("failed to insert diary %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// Clear drops every cached list.
func (r *listRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM diaries`); err != nil {
		return fmt.Errorf("failed to clear diaries: %w", err)
	}
	return nil
}

func (r *listRepository) List(ctx context.Context, owner string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date, thumbnail FROM diaries WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		var date string
		if err := rows.Scan(&it.ID, &it.Title, &date, &it.Thumbnail); err != nil {
			return nil, fmt.Errorf("failed to scan diary row: %w", err)
		}
		it.Date, err = time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("bad cached date %q: %w", date, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diary rows: %w", err)
	}
	return items, nil
}

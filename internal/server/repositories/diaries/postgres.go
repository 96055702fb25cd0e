package diaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements diary storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Diary) (string, error) {
	query := `
		INSERT INTO diaries (user_id, conversation, summary, video, title, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		d.UserID, d.Conversation, d.Summary, d.Video, d.Title, d.Thumbnail, d.Date).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]models.DiaryListItem, error) {
	result := []models.DiaryListItem{}
	if !validIDs(userID) {
		return result, nil
	}

	query := `
		SELECT id, title, created_at, thumbnail FROM diaries
		WHERE user_id = $1
		ORDER BY created_at DESC, seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select diaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.DiaryListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Date, &item.Thumbnail); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string, userID string) (*models.Diary, error) {
	if !validIDs(id, userID) {
		return nil, common.ErrorNotFound
	}

	query := `
		SELECT id, user_id, conversation, summary, video, created_at, title, thumbnail FROM diaries
		WHERE id = $1 AND user_id = $2
	`
	d := &models.Diary{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&d.ID, &d.UserID, &d.Conversation, &d.Summary, &d.Video, &d.Date, &d.Title, &d.Thumbnail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) UpdateTitle(ctx context.Context, id string, userID string, title string) error {
	return r.update(ctx, `UPDATE diaries SET title = $3 WHERE id = $1 AND user_id = $2`, id, userID, title)
}

func (r *PostgresRepository) UpdateThumbnail(ctx context.Context, id string, userID string, thumbnail string) error {
	return r.update(ctx, `UPDATE diaries SET thumbnail = $3 WHERE id = $1 AND user_id = $2`, id, userID, thumbnail)
}

// update runs an owner-scoped single-row UPDATE. Zero affected rows means
// the diary is absent or belongs to someone else.
func (r *PostgresRepository) update(ctx context.Context, query string, id, userID, value string) error {
	if !validIDs(id, userID) {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, query, id, userID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

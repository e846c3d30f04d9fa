package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/portal-social/internal/models"
)

var ErrContentNotFound = errors.New("content not found")

// ContentRepository reads articles owned by the CMS. The only write is the
// posted_to_social flag.
type ContentRepository interface {
	GetContent(ctx context.Context, id int64) (*models.Content, error)
	// MarkPostedToSocial reports whether the flag changed; repeat calls are no-ops.
	MarkPostedToSocial(ctx context.Context, id int64) (bool, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	query := `
		SELECT id, title, COALESCE(summary, ''), COALESCE(canonical_url, ''),
			COALESCE(image_url, ''), posted_to_social
		FROM articles
		WHERE id = $1`

	var c models.Content
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Summary, &c.CanonicalLink, &c.ImageURL, &c.PostedToSocial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *contentRepository) MarkPostedToSocial(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE articles SET posted_to_social = TRUE WHERE id = $1 AND posted_to_social = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/portal-social/internal/models"
)

// PublishLogRepository is the append-only audit trail of publish attempts.
type PublishLogRepository interface {
	Append(ctx context.Context, entry *models.PublishLogEntry) (int64, error)
	ListByContentID(ctx context.Context, contentID int64) ([]*models.PublishLogEntry, error)
}

type publishLogRepository struct {
	db *sql.DB
}

func NewPublishLogRepository(db *sql.DB) PublishLogRepository {
	return &publishLogRepository{db: db}
}

func (r *publishLogRepository) Append(ctx context.Context, entry *models.PublishLogEntry) (int64, error) {
	query := `
		INSERT INTO publish_logs (content_id, platform, status, message, retry_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ContentID,
		entry.Platform,
		entry.Status,
		entry.Message,
		entry.RetryAfter,
	).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return entry.ID, nil
}

func (r *publishLogRepository) ListByContentID(ctx context.Context, contentID int64) ([]*models.PublishLogEntry, error) {
	query := `
		SELECT id, content_id, platform, status, message, retry_after, created_at
		FROM publish_logs
		WHERE content_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, contentID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PublishLogEntry
	for rows.Next() {
		var e models.PublishLogEntry
		err := rows.Scan(&e.ID, &e.ContentID, &e.Platform, &e.Status, &e.Message, &e.RetryAfter, &e.Timestamp)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return entries, nil
}

package models

import "time"

type PublishStatus string

const (
	PublishStatusSuccess PublishStatus = "success"
	PublishStatusFailed  PublishStatus = "failed"
)

type PublishLogEntry struct {
	ID        int64         `db:"id" json:"id"`
	ContentID int64         `db:"content_id" json:"content_id"`
	Platform  Platform      `db:"platform" json:"platform"`
	Status    PublishStatus `db:"status" json:"status"`
	// Message is the external post id on success, a diagnostic otherwise.
	Message string `db:"message" json:"message"`
	// RetryAfter is set in seconds when the platform rate limited the attempt.
	RetryAfter int64     `db:"retry_after" json:"retry_after,omitempty"`
	Timestamp  time.Time `db:"created_at" json:"timestamp"`
}

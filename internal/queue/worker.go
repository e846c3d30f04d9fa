package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/portal-social/internal/models"
)

func (j *Queue) HandlePublishContentTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishContentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding publish payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ContentID == 0 || len(payload.Platforms) == 0 {
		return fmt.Errorf("publish payload without content or platforms: %w", asynq.SkipRetry)
	}

	entries := j.ps.Publish(ctx, payload.ContentID, payload.Platforms)
	for _, e := range entries {
		if e.Status != models.PublishStatusSuccess {
			log.Printf("Publish of content %d to %s failed: %s", e.ContentID, e.Platform, e.Message)
		}
	}

	return nil
}

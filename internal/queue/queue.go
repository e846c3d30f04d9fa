package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used to schedule publishes.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueuePublish schedules a publish. Tasks are never retried by the queue:
// a failed platform is recorded in the publish log and retried by an operator.
func EnqueuePublish(ctx context.Context, client Enqueuer, payload PublishContentPayload, delay time.Duration) (string, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypePublishContent, taskPayload)

	info, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.ProcessIn(delay))
	if err != nil {
		return "", err
	}

	log.Printf("Publish task queued: %s %+v", info.ID, payload)
	return info.ID, nil
}

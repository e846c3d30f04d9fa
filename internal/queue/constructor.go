package queue

import (
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/service"
)

type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishContent = "social:publish"

type PublishContentPayload struct {
	ContentID int64             `json:"content_id"`
	Platforms []models.Platform `json:"platforms"`
}

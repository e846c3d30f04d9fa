package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/queue"
	"github.com/maheshrc27/portal-social/internal/service"
	"github.com/maheshrc27/portal-social/internal/transfer"
)

type PublishHandler struct {
	s     service.PublishService
	queue queue.Enqueuer
}

// NewPublishHandler takes a nil enqueuer when no queue is configured; async
// requests are then refused.
func NewPublishHandler(s service.PublishService, enqueuer queue.Enqueuer) *PublishHandler {
	return &PublishHandler{s: s, queue: enqueuer}
}

func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("id")
	if err != nil || contentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content id",
		})
	}

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}
	if len(req.Platforms) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No platforms selected",
		})
	}

	platforms := make([]models.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platforms = append(platforms, models.ParsePlatform(p))
	}

	if req.Async {
		if h.queue == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Publish queue is not configured",
			})
		}

		taskID, err := queue.EnqueuePublish(c.Context(), h.queue, queue.PublishContentPayload{
			ContentID: int64(contentID),
			Platforms: platforms,
		}, 0)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error queueing publish",
			})
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"task_id": taskID,
		})
	}

	entries := h.s.Publish(c.Context(), int64(contentID), platforms)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"results": entries,
	})
}

func (h *PublishHandler) PublishLog(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("id")
	if err != nil || contentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content id",
		})
	}

	entries, err := h.s.ListLog(c.Context(), int64(contentID))
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load publish log",
		})
	}

	if entries == nil {
		entries = []*models.PublishLogEntry{}
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}

package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
)

type WebhookHandler struct {
	clients      *platform.Registry
	verifyTokens map[models.Platform]string
}

func NewWebhookHandler(clients *platform.Registry, verifyTokens map[models.Platform]string) *WebhookHandler {
	return &WebhookHandler{clients: clients, verifyTokens: verifyTokens}
}

// VerifySubscription answers Meta's hub.challenge handshake.
func (h *WebhookHandler) VerifySubscription(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	expected := h.verifyTokens[p]
	if expected == "" || c.Query("hub.mode") != "subscribe" || c.Query("hub.verify_token") != expected {
		return c.SendStatus(fiber.StatusForbidden)
	}

	return c.Status(fiber.StatusOK).SendString(c.Query("hub.challenge"))
}

func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	client, ok := h.clients.Client(p)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	body := c.Body()
	if !client.VerifyWebhookSignature(body, c.Get("X-Hub-Signature-256")) {
		slog.Warn("webhook rejected", "platform", p, "error", platform.ErrWebhookSignatureInvalid)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": platform.ErrWebhookSignatureInvalid.Error(),
		})
	}

	var event struct {
		Object string            `json:"object"`
		Entry  []json.RawMessage `json:"entry"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse event",
		})
	}

	slog.Info("webhook received", "platform", p, "object", event.Object, "entries", len(event.Entry))
	return c.SendStatus(fiber.StatusOK)
}

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/portal-social/configs"
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/service"
	"github.com/maheshrc27/portal-social/internal/transfer"
	"github.com/maheshrc27/portal-social/pkg/utils"
)

type PlatformHandler struct {
	cs  service.ConnectService
	cfg config.Config
}

func NewPlatformHandler(cs service.ConnectService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{cs: cs, cfg: cfg}
}

func (h *PlatformHandler) ConnectAccount(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	authURL, err := h.cs.AuthorizationURL(c.Context(), p, GetOperatorID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Redirect(authURL)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	// the operator declined on the consent screen
	if reason := c.Query("error"); reason != "" {
		slog.Info("oauth consent declined", "platform", p, "reason", reason, "description", c.Query("error_description"))
		return c.Redirect(h.accountsURL("error", reason), fiber.StatusTemporaryRedirect)
	}

	_, err := h.cs.Callback(c.Context(), p, c.Query("code"), c.Query("state"))
	if err != nil {
		if errors.Is(err, utils.ErrInvalidState) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to validate state",
			})
		}
		slog.Info(err.Error())
		return c.Redirect(h.accountsURL("error", "connect_failed"), fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(h.accountsURL("connected", string(p)), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) accountsURL(key, value string) string {
	return fmt.Sprintf("%s/dashboard/accounts?%s=%s", h.cfg.FrontendURL, key, url.QueryEscape(value))
}

func (h *PlatformHandler) ManualToken(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	var req transfer.ManualConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	account, err := h.cs.ConnectManual(c.Context(), p, GetOperatorID(c), req.AccessToken)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.cs.List(c.Context())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DisconnectAccount(c *fiber.Ctx) error {
	p := models.ParsePlatform(c.Params("platform"))

	if err := h.cs.Disconnect(c.Context(), p); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

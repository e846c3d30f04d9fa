package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/service"
	"github.com/maheshrc27/portal-social/pkg/utils"
)

func GetOperatorID(c *fiber.Ctx) string {
	operatorID, _ := c.Locals("operator_id").(string)
	return operatorID
}

// errorStatus maps service and platform errors onto HTTP statuses.
func errorStatus(err error) int {
	var (
		authErr     *platform.AuthExchangeError
		noTarget    *platform.NoTargetFoundError
		expired     *platform.TokenExpiredError
		rateLimited *platform.RateLimitError
		apiErr      *platform.APIError
	)

	switch {
	case errors.Is(err, service.ErrUnsupportedPlatform), errors.Is(err, service.ErrNoActiveAccount):
		return fiber.StatusNotFound
	case errors.Is(err, utils.ErrInvalidState), errors.Is(err, service.ErrEmptyToken),
		errors.Is(err, service.ErrEmptyCode), errors.As(err, &authErr):
		return fiber.StatusBadRequest
	case errors.As(err, &noTarget), errors.As(err, &expired):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &rateLimited):
		return fiber.StatusTooManyRequests
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

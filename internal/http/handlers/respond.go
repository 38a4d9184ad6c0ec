package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
)

// respondErr maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is logged and hidden behind a generic 500.
func respondErr(c *fiber.Ctx, err error) error {
	var code int
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		code = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrBlacklisted):
		code = fiber.StatusForbidden
	case errors.Is(err, domain.ErrSelfTrade),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInsufficientFunds):
		code = fiber.StatusConflict
	case errors.Is(err, domain.ErrLedger):
		code = fiber.StatusBadGateway
	default:
		applog.Error(c, "server.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

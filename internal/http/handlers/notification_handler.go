package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/services"
)

type NotificationHandler struct {
	Notify *services.NotifyService
}

// Drain hands the caller everything queued for them and clears the
// queue. Clients call this on connect.
func (h *NotificationHandler) Drain(c *fiber.Ctx) error {
	u := currentUser(c)
	msgs, err := h.Notify.Drain(u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"notifications": msgs})
}

func (h *NotificationHandler) Pending(c *fiber.Ctx) error {
	u := currentUser(c)
	n, err := h.Notify.Pending(u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"pending": n})
}

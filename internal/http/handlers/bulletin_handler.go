package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

type BulletinHandler struct {
	Board *services.BulletinService
}

func (h *BulletinHandler) List(c *fiber.Ctx) error {
	msgs, err := h.Board.Active()
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *BulletinHandler) Mine(c *fiber.Ctx) error {
	u := currentUser(c)
	msgs, err := h.Board.ByOwner(u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *BulletinHandler) Post(c *fiber.Ctx) error {
	u := currentUser(c)

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}

	msg, err := h.Board.Post(u.ID, u.Name, body.Content)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "board.post", map[string]any{"message_id": msg.ID, "owner": u.ID})
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *BulletinHandler) Renew(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	msg, err := h.Board.Renew(c.Context(), int64(id), u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "board.renew", map[string]any{"message_id": msg.ID, "owner": u.ID})
	return c.JSON(msg)
}

func (h *BulletinHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	if err := h.Board.Delete(int64(id), u.ID, u.Role == "ADMIN"); err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "board.delete", map[string]any{"message_id": id, "by": u.ID})
	return c.JSON(fiber.Map{"ok": true})
}

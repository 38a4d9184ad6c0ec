package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"bazaar/internal/itemhash"
	"bazaar/internal/services"
)

type AdminHandler struct {
	Admin *services.AdminService
}

// ToggleBlacklist flips the listing ban for the posted item.
func (h *AdminHandler) ToggleBlacklist(c *fiber.Ctx) error {
	u := currentUser(c)

	var body struct {
		Item itemhash.Item `json:"item"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if body.Item.Kind == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item kind required"})
	}

	banned, err := h.Admin.ToggleBlacklist(c.Context(), *u, body.Item)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"item_id": itemhash.Compute(body.Item).String(), "blacklisted": banned})
}

func (h *AdminHandler) Blacklist(c *fiber.Ctx) error {
	entries, err := h.Admin.BlacklistEntries()
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *AdminHandler) SetFee(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := itemhash.Parse(c.Params("itemID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	var body struct {
		Rate string `json:"rate"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid rate"})
	}

	if err := h.Admin.SetFeeRate(c.Context(), *u, id, rate); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) ClearFee(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := itemhash.Parse(c.Params("itemID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	if err := h.Admin.ClearFeeRate(c.Context(), *u, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) Fees(c *fiber.Ctx) error {
	overrides, err := h.Admin.FeeOverrides()
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"overrides": overrides})
}

// SetBoost fixes a shop's ranking boost to an absolute value.
func (h *AdminHandler) SetBoost(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Amount string `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid amount"})
	}

	if err := h.Admin.SetBoost(*u, int64(shopID), amount); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// AdjustBoost shifts a shop's boost by a signed delta.
func (h *AdminHandler) AdjustBoost(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Delta string `json:"delta"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	delta, err := decimal.NewFromString(body.Delta)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid delta"})
	}

	if err := h.Admin.AddBoost(*u, int64(shopID), delta); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) RemoveShop(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)

	if err := h.Admin.RemoveShop(*u, int64(shopID), body.Reason); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) RemoveMessage(c *fiber.Ctx) error {
	u := currentUser(c)
	msgID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)

	if err := h.Admin.RemoveMessage(*u, int64(msgID), body.Reason); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.Admin.RecentLogs(c.QueryInt("limit", 100))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"logs": logs})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type ShopHandler struct {
	Shops *services.ShopService
}

// List serves the public directory, hottest shops first.
func (h *ShopHandler) List(c *fiber.Ctx) error {
	shops, err := h.Shops.Ranked()
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"shops": shops})
}

func (h *ShopHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)

	var body struct {
		Location    string `json:"location"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if body.Name != "" {
		if _, ok := validate.Name(body.Name); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop name"})
		}
	}

	shop, err := h.Shops.Create(u.ID, u.Name, body.Location, body.Name, body.Description)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "shop.create", map[string]any{"shop_id": shop.ID, "owner": u.ID})
	return c.Status(fiber.StatusCreated).JSON(shop)
}

func (h *ShopHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}
	shop, err := h.Shops.ByID(int64(id))
	if err != nil {
		return respondErr(c, err)
	}
	listings, err := h.Shops.ShopListings(int64(id))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"shop": shop, "listings": listings})
}

func (h *ShopHandler) Mine(c *fiber.Ctx) error {
	u := currentUser(c)
	shops, err := h.Shops.ByOwner(u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"shops": shops})
}

func (h *ShopHandler) Rename(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if _, ok := validate.Name(body.Name); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop name"})
	}

	if err := h.Shops.Rename(int64(id), u.ID, body.Name); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ShopHandler) Redescribe(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Description string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}

	if err := h.Shops.Redescribe(int64(id), u.ID, body.Description); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ShopHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}
	if err := h.Shops.Remove(int64(id), u.ID); err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "shop.delete", map[string]any{"shop_id": id, "owner": u.ID})
	return c.JSON(fiber.Map{"ok": true})
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"bazaar/internal/itemhash"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

type MarketHandler struct {
	Market *services.MarketService
}

// Sell lists an item for sale in the caller's shop.
func (h *MarketHandler) Sell(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		Item  itemhash.Item `json:"item"`
		Price string        `json:"price"`
		Stock int           `json:"stock"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if body.Item.Kind == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item kind required"})
	}
	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid price"})
	}

	listing, err := h.Market.ListItem(c.Context(), int64(shopID), u.ID, body.Item, price, body.Stock)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "market.list", map[string]any{
		"shop_id": shopID, "listing_id": listing.ID, "item": listing.ItemHash,
	})
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// Buy purchases a quantity of one item identity from a shop.
func (h *MarketHandler) Buy(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}

	var body struct {
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	id, err := itemhash.Parse(body.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	rcpt, err := h.Market.Buy(c.Context(), int64(shopID), id, body.Quantity, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "market.buy", map[string]any{
		"shop_id": shopID, "item": id.String(), "qty": body.Quantity,
		"total": rcpt.TotalCost.String(), "buyer": u.ID,
	})
	return c.JSON(rcpt)
}

// Trades serves a shop's recent sales log, newest first.
func (h *MarketHandler) Trades(c *fiber.Ctx) error {
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}
	trades, err := h.Market.ShopTrades(int64(shopID), c.QueryInt("limit", 50))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"transactions": trades})
}

// Stats reports the caller's trade volume over a trailing window of days.
func (h *MarketHandler) Stats(c *fiber.Ctx) error {
	u := currentUser(c)
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be 1..365"})
	}
	since := time.Now().AddDate(0, 0, -days).Unix()
	stats, err := h.Market.AccountStats(u.ID, since)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(stats)
}

// Delist pulls every tier of one item identity from the caller's shop.
func (h *MarketHandler) Delist(c *fiber.Ctx) error {
	u := currentUser(c)
	shopID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shop id"})
	}
	id, err := itemhash.Parse(c.Params("itemID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	rcpt, err := h.Market.Delist(c.Context(), int64(shopID), id, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	applog.Audit(c, "market.delist", map[string]any{
		"shop_id": shopID, "item": id.String(), "fee": rcpt.Fee.String(),
	})
	return c.JSON(rcpt)
}

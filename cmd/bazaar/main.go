package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"bazaar/internal/cache"
	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal(err)
	}

	var store cache.Cache
	if cfg.Cache.Type == "redis" {
		store, err = cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		store = cache.NewMemoryCache()
	}
	defer func() { _ = store.Close() }()

	// The ledger and item carrier are external collaborators; the
	// standalone binary runs with in-process stand-ins.
	ledger := services.NewMemoryLedger()
	carrier := services.UnboundedCarrier{}

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, cfg, store, ledger, carrier, nil)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	deps.Bulletins.StartSweeper(sweepCtx, cfg.Board.SweepInterval)

	// ---------- Routes ----------
	api := app.Group("/api/v1")
	requireUser := handlers.RequireUser(authSvc)

	api.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), authH.Login)
	api.Post("/logout", authH.Logout)
	api.Get("/me", requireUser, authH.Me)

	// Public directory and board
	api.Get("/shops", deps.ShopHandler.List)
	api.Get("/shops/:id", deps.ShopHandler.Get)
	api.Get("/shops/:id/transactions", deps.MarketHandler.Trades)
	api.Get("/board", deps.BulletinHandler.List)

	// Shop lifecycle
	api.Post("/shops", requireUser, deps.ShopHandler.Create)
	api.Get("/my/shops", requireUser, deps.ShopHandler.Mine)
	api.Put("/shops/:id/name", requireUser, deps.ShopHandler.Rename)
	api.Put("/shops/:id/description", requireUser, deps.ShopHandler.Redescribe)
	api.Delete("/shops/:id", requireUser, deps.ShopHandler.Delete)

	// Trading
	api.Post("/shops/:id/listings", requireUser, deps.MarketHandler.Sell)
	api.Post("/shops/:id/buy", requireUser, deps.MarketHandler.Buy)
	api.Delete("/shops/:id/listings/:itemID", requireUser, deps.MarketHandler.Delist)
	api.Get("/my/stats", requireUser, deps.MarketHandler.Stats)

	// Board
	api.Post("/board", requireUser, deps.BulletinHandler.Post)
	api.Get("/my/board", requireUser, deps.BulletinHandler.Mine)
	api.Post("/board/:id/renew", requireUser, deps.BulletinHandler.Renew)
	api.Delete("/board/:id", requireUser, deps.BulletinHandler.Delete)

	// Notifications
	api.Post("/notifications/drain", requireUser, deps.NotificationHandler.Drain)
	api.Get("/notifications/count", requireUser, deps.NotificationHandler.Pending)

	// Admin
	admin := api.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Post("/blacklist", deps.AdminHandler.ToggleBlacklist)
	admin.Get("/blacklist", deps.AdminHandler.Blacklist)
	admin.Put("/fees/:itemID", deps.AdminHandler.SetFee)
	admin.Delete("/fees/:itemID", deps.AdminHandler.ClearFee)
	admin.Get("/fees", deps.AdminHandler.Fees)
	admin.Put("/shops/:id/boost", deps.AdminHandler.SetBoost)
	admin.Post("/shops/:id/boost/adjust", deps.AdminHandler.AdjustBoost)
	admin.Delete("/shops/:id", deps.AdminHandler.RemoveShop)
	admin.Delete("/board/:id", deps.AdminHandler.RemoveMessage)
	admin.Get("/logs", deps.AdminHandler.Logs)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(cfg.Server.Address()))
}

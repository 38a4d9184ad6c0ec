package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/cache"
	"bazaar/internal/config"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

type Deps struct {
	ShopHandler         *ShopHandler
	MarketHandler       *MarketHandler
	BulletinHandler     *BulletinHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler

	Bulletins *services.BulletinService
}

func NewDeps(db *sqlx.DB, cfg *config.Config, c cache.Cache,
	ledger services.Ledger, carrier services.Carrier, presence services.Presence) *Deps {

	shopRepo := repos.NewShopRepo(db)
	listingRepo := repos.NewListingRepo(db)
	tradeRepo := repos.NewTransactionRepo(db)
	notifRepo := repos.NewNotificationRepo(db)
	bulletinRepo := repos.NewBulletinRepo(db)
	overrideRepo := repos.NewOverrideRepo(db)
	adminLogRepo := repos.NewAdminLogRepo(db)

	notifySvc := &services.NotifyService{Notifications: notifRepo, Presence: presence}
	overrideSvc := services.NewOverrideService(overrideRepo, c, cfg.Cache.TTL)

	marketSvc := &services.MarketService{
		DB:        db,
		Shops:     shopRepo,
		Listings:  listingRepo,
		Trades:    tradeRepo,
		Overrides: overrideSvc,
		Ledger:    ledger,
		Carrier:   carrier,
		Notify:    notifySvc,
		Fees: services.FeePolicy{
			TransactionFeePercent: decimal.NewFromFloat(cfg.Market.TransactionFeePercent),
			DelistFeeMode:         cfg.Market.DelistFeeMode,
			DelistFeeValue:        decimal.NewFromFloat(cfg.Market.DelistFeeValue),
		},
	}
	shopSvc := &services.ShopService{
		Shops:    shopRepo,
		Listings: listingRepo,
		Weights: services.HeatWeights{
			Tx:    decimal.NewFromFloat(cfg.Market.HeatWeightTx),
			Boost: decimal.NewFromFloat(cfg.Market.HeatWeightBoost),
		},
	}
	bulletinSvc := &services.BulletinService{
		Messages:      bulletinRepo,
		Ledger:        ledger,
		PostDuration:  cfg.Board.PostDuration,
		RenewDuration: cfg.Board.RenewDuration,
		RenewPrice:    decimal.NewFromFloat(cfg.Board.RenewPrice),
	}
	adminSvc := &services.AdminService{
		Shops:     shopRepo,
		Overrides: overrideSvc,
		Bulletins: bulletinSvc,
		Notify:    notifySvc,
		Logs:      adminLogRepo,
	}

	return &Deps{
		ShopHandler:         &ShopHandler{Shops: shopSvc},
		MarketHandler:       &MarketHandler{Market: marketSvc},
		BulletinHandler:     &BulletinHandler{Board: bulletinSvc},
		NotificationHandler: &NotificationHandler{Notify: notifySvc},
		AdminHandler:        &AdminHandler{Admin: adminSvc},
		Bulletins:           bulletinSvc,
	}
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"

	"bazaar/internal/cache"
	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestApp(t *testing.T) (*fiber.App, *services.MemoryLedger) {
	t.Helper()

	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	cfg := &config.Config{}
	cfg.Cache.TTL = time.Minute
	cfg.Market.TransactionFeePercent = 3.0
	cfg.Market.DelistFeeMode = "fixed"
	cfg.Market.DelistFeeValue = 10.0
	cfg.Market.HeatWeightTx = 1.0
	cfg.Market.HeatWeightBoost = 10.0
	cfg.Board.PostDuration = time.Hour
	cfg.Board.RenewDuration = time.Hour
	cfg.Board.RenewPrice = 100.0

	ledger := services.NewMemoryLedger()
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	deps := handlers.NewDeps(db, cfg, mc, ledger, services.UnboundedCarrier{}, nil)

	app := fiber.New()
	app.Use(requestid.New())

	api := app.Group("/api/v1")
	api.Post("/login", authH.Login)

	api.Get("/shops", deps.ShopHandler.List)
	api.Get("/shops/:id", deps.ShopHandler.Get)
	api.Get("/shops/:id/transactions", deps.MarketHandler.Trades)

	requireUser := handlers.RequireUser(authSvc)
	api.Get("/my/stats", requireUser, deps.MarketHandler.Stats)
	api.Post("/shops", requireUser, deps.ShopHandler.Create)
	api.Post("/shops/:id/listings", requireUser, deps.MarketHandler.Sell)
	api.Post("/shops/:id/buy", requireUser, deps.MarketHandler.Buy)
	api.Delete("/shops/:id/listings/:itemID", requireUser, deps.MarketHandler.Delist)
	api.Post("/notifications/drain", requireUser, deps.NotificationHandler.Drain)

	admin := api.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/logs", deps.AdminHandler.Logs)
	admin.Post("/blacklist", deps.AdminHandler.ToggleBlacklist)

	return app, ledger
}

func sidCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	return nil
}

func login(t *testing.T, app *fiber.App, email string) *http.Cookie {
	t.Helper()
	body := `{"email":"` + email + `","password":"Passw0rd!"}`
	req := httptest.NewRequest("POST", "/api/v1/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	sid := sidCookie(resp)
	if sid == nil {
		t.Fatal("no sid cookie on login")
	}
	return sid
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, sid *http.Cookie) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sid != nil {
		req.AddCookie(sid)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAuthGuards(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous writes are rejected.
	resp := doJSON(t, app, "POST", "/api/v1/shops", `{"location":"x"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}

	// Regular users cannot reach admin surface.
	alice := login(t, app, "alice@bazaar.test")
	resp = doJSON(t, app, "GET", "/api/v1/admin/logs", "", alice)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403, got %d", resp.StatusCode)
	}

	// Admins can.
	admin := login(t, app, "admin@bazaar.test")
	resp = doJSON(t, app, "GET", "/api/v1/admin/logs", "", admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestTradeFlowOverHTTP(t *testing.T) {
	app, ledger := newTestApp(t)

	bob := login(t, app, "bob@bazaar.test")
	alice := login(t, app, "alice@bazaar.test")

	// Bob opens a shop and lists stone.
	resp := doJSON(t, app, "POST", "/api/v1/shops", `{"location":"spawn","name":"Bob's Rocks"}`, bob)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create shop: status %d", resp.StatusCode)
	}
	var shop struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&shop); err != nil {
		t.Fatal(err)
	}

	resp = doJSON(t, app, "POST", "/api/v1/shops/1/listings",
		`{"item":{"kind":"stone","amount":5},"price":"2","stock":5}`, bob)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("list item: status %d", resp.StatusCode)
	}
	var listing struct {
		ItemHash    string `json:"item_hash"`
		HashVersion int    `json:"hash_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	itemID := "v1:" + listing.ItemHash

	// Broke buyer is turned away.
	resp = doJSON(t, app, "POST", "/api/v1/shops/1/buy",
		`{"item_id":"`+itemID+`","quantity":3}`, alice)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("broke buyer: want 409, got %d", resp.StatusCode)
	}

	// Funded buyer gets a receipt.
	ledger.Credit("u-alice", dec("100"))
	resp = doJSON(t, app, "POST", "/api/v1/shops/1/buy",
		`{"item_id":"`+itemID+`","quantity":3}`, alice)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buy: status %d", resp.StatusCode)
	}
	var rcpt struct {
		TotalCost    string `json:"total_cost"`
		Fee          string `json:"fee"`
		SellerIncome string `json:"seller_income"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rcpt); err != nil {
		t.Fatal(err)
	}
	if rcpt.TotalCost != "6" || rcpt.Fee != "0.18" || rcpt.SellerIncome != "5.82" {
		t.Fatalf("bad receipt: %+v", rcpt)
	}

	// The sale shows up in the shop's public transaction log.
	resp = doJSON(t, app, "GET", "/api/v1/shops/1/transactions", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shop transactions: status %d", resp.StatusCode)
	}
	var logPage struct {
		Transactions []struct {
			Amount int    `json:"amount"`
			Price  string `json:"price"`
		} `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&logPage); err != nil {
		t.Fatal(err)
	}
	if len(logPage.Transactions) != 1 || logPage.Transactions[0].Amount != 3 || logPage.Transactions[0].Price != "2" {
		t.Fatalf("bad transaction log: %+v", logPage)
	}

	// And in the buyer's trailing stats.
	resp = doJSON(t, app, "GET", "/api/v1/my/stats?days=7", "", alice)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}
	var stats struct {
		Volume string `json:"volume"`
		Count  int64  `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Volume != "6" || stats.Count != 1 {
		t.Fatalf("bad stats: %+v", stats)
	}

	// Bob was offline during the sale; his notice is waiting.
	resp = doJSON(t, app, "POST", "/api/v1/notifications/drain", "", bob)
	var drained struct {
		Notifications []struct {
			Message string `json:"message"`
		} `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&drained); err != nil {
		t.Fatal(err)
	}
	if len(drained.Notifications) != 1 || !strings.Contains(drained.Notifications[0].Message, "sold") {
		t.Fatalf("bad drained notifications: %+v", drained)
	}

	// Delisting the rest returns stock and charges the fixed fee.
	ledger.Credit("u-bob", dec("50"))
	resp = doJSON(t, app, "DELETE", "/api/v1/shops/1/listings/"+itemID, "", bob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delist: status %d", resp.StatusCode)
	}
	var dl struct {
		Rows     int    `json:"rows"`
		Returned int    `json:"returned"`
		Fee      string `json:"fee"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dl); err != nil {
		t.Fatal(err)
	}
	if dl.Rows != 1 || dl.Returned != 2 || dl.Fee != "10" {
		t.Fatalf("bad delist receipt: %+v", dl)
	}
}

func TestBlacklistBlocksListingOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	admin := login(t, app, "admin@bazaar.test")
	bob := login(t, app, "bob@bazaar.test")

	resp := doJSON(t, app, "POST", "/api/v1/shops", `{"location":"spawn"}`, bob)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create shop: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/v1/admin/blacklist",
		`{"item":{"kind":"bedrock"}}`, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle blacklist: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/v1/shops/1/listings",
		`{"item":{"kind":"bedrock","amount":1},"price":"1","stock":1}`, bob)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("blacklisted listing: want 403, got %d", resp.StatusCode)
	}
}

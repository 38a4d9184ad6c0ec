package services_test

import (
	"context"
	"errors"
	"testing"

	"bazaar/internal/domain"
	"bazaar/internal/itemhash"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func newAdmin(t *testing.T, e *engine) (*services.AdminService, domain.User) {
	t.Helper()
	board := &services.BulletinService{
		Messages: repos.NewBulletinRepo(e.db),
		Ledger:   e.ledger,
	}
	svc := &services.AdminService{
		Shops:     repos.NewShopRepo(e.db),
		Overrides: e.overrides,
		Bulletins: board,
		Notify:    e.notify,
		Logs:      repos.NewAdminLogRepo(e.db),
	}
	return svc, domain.User{ID: "u-admin", Name: "Admin", Role: "ADMIN"}
}

func TestToggleBlacklistRoundTrip(t *testing.T) {
	e := newEngine(t, defaultFees())
	admin, who := newAdmin(t, e)
	ctx := context.Background()

	item := stone(1)
	id := itemhash.Compute(item)

	banned, err := admin.ToggleBlacklist(ctx, who, item)
	if err != nil {
		t.Fatal(err)
	}
	if !banned {
		t.Fatal("first toggle must blacklist")
	}
	if got, _ := e.overrides.Blacklisted(ctx, id); !got {
		t.Fatal("lookup must see the ban immediately")
	}

	banned, err = admin.ToggleBlacklist(ctx, who, item)
	if err != nil {
		t.Fatal(err)
	}
	if banned {
		t.Fatal("second toggle must lift the ban")
	}
	if got, _ := e.overrides.Blacklisted(ctx, id); got {
		t.Fatal("lookup must see the ban lifted")
	}

	logs, err := admin.RecentLogs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].Action != "blacklist.remove" || logs[1].Action != "blacklist.add" {
		t.Fatalf("bad audit trail: %+v", logs)
	}
}

func TestFeeOverrideLifecycle(t *testing.T) {
	e := newEngine(t, defaultFees())
	admin, who := newAdmin(t, e)
	ctx := context.Background()

	id := itemhash.Compute(stone(1))
	if err := admin.SetFeeRate(ctx, who, id, dec("-1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative rate: want ErrValidation, got %v", err)
	}

	if err := admin.SetFeeRate(ctx, who, id, dec("7.5")); err != nil {
		t.Fatal(err)
	}
	rate, ok, err := e.overrides.FeeRate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !rate.Equal(dec("7.5")) {
		t.Fatalf("want 7.5, got ok=%v rate=%s", ok, rate)
	}

	if err := admin.ClearFeeRate(ctx, who, id); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := e.overrides.FeeRate(ctx, id); ok {
		t.Fatal("override must be gone after clear")
	}
	if err := admin.ClearFeeRate(ctx, who, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("clearing twice: want ErrNotFound, got %v", err)
	}
}

func TestAdminBoostAndRanking(t *testing.T) {
	e := newEngine(t, defaultFees())
	admin, who := newAdmin(t, e)

	a, _ := e.shops.Create("u-bob", "Bob", "plaza", "A", "")
	b, _ := e.shops.Create("u-carol", "Carol", "plaza", "B", "")

	// Boost weight is 10, so one point of boost outranks a few sales.
	if err := admin.SetBoost(who, b.ID, dec("1")); err != nil {
		t.Fatal(err)
	}

	ranked, err := e.shops.Ranked()
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 || ranked[0].ID != b.ID || ranked[1].ID != a.ID {
		t.Fatalf("want [B A], got %+v", ranked)
	}
	if !ranked[0].Heat.Equal(dec("10")) {
		t.Fatalf("want heat 10, got %s", ranked[0].Heat)
	}

	// Taking the boost away drops it back to the id tie-break.
	if err := admin.AddBoost(who, b.ID, dec("-1")); err != nil {
		t.Fatal(err)
	}
	ranked, _ = e.shops.Ranked()
	if ranked[0].ID != a.ID {
		t.Fatalf("want A first on tie, got %+v", ranked)
	}

	if err := admin.SetBoost(who, 9999, dec("1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing shop: want ErrNotFound, got %v", err)
	}
}

func TestAdminRemoveShopNotifiesOwner(t *testing.T) {
	e := newEngine(t, defaultFees())
	admin, who := newAdmin(t, e)

	shop, _ := e.shops.Create("u-bob", "Bob", "plaza", "Bob's Rocks", "")
	if err := admin.RemoveShop(who, shop.ID, "rule violation"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.shops.ByID(shop.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("shop must be gone, got %v", err)
	}
	notes, err := e.notify.Drain("u-bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("owner must be told, got %+v", notes)
	}
}

func TestHeatCountsSalesAcrossOwnersShops(t *testing.T) {
	e := newEngine(t, defaultFees())
	ctx := context.Background()

	first, _ := e.shops.Create("u-bob", "Bob", "plaza", "First", "")
	second, _ := e.shops.Create("u-bob", "Bob", "market", "Second", "")
	if _, err := e.market.ListItem(ctx, first.ID, "u-bob", stone(5), dec("1"), 5); err != nil {
		t.Fatal(err)
	}

	e.ledger.Credit("u-alice", dec("10"))
	if _, err := e.market.Buy(ctx, first.ID, itemhash.Compute(stone(1)), 3, "u-alice"); err != nil {
		t.Fatal(err)
	}

	ranked, err := e.shops.Ranked()
	if err != nil {
		t.Fatal(err)
	}
	// The sale happened in the first shop but warms both of Bob's shops.
	for _, s := range ranked {
		if s.ID == second.ID && !s.Heat.Equal(dec("1")) {
			t.Fatalf("sibling shop heat: want 1, got %s", s.Heat)
		}
	}
}

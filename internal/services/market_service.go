package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/itemhash"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
)

// buyRetryLimit bounds the optimistic retry loop when concurrent buyers
// race on the same listing rows.
const buyRetryLimit = 3

// FeePolicy is the configured global fee behavior; per-item overrides
// take precedence on purchases.
type FeePolicy struct {
	// TransactionFeePercent applies to purchases, as a percentage.
	TransactionFeePercent decimal.Decimal

	// DelistFeeMode is "fixed" (DelistFeeValue per price tier) or
	// "percent" (stock*price*DelistFeeValue/100 per tier).
	DelistFeeMode  string
	DelistFeeValue decimal.Decimal
}

// MarketService fulfills buy, sell and delist requests against the
// listing store, enforcing atomicity and the fee policy.
type MarketService struct {
	DB        *sqlx.DB
	Shops     *repos.ShopRepo
	Listings  *repos.ListingRepo
	Trades    *repos.TransactionRepo
	Overrides *OverrideService
	Ledger    Ledger
	Carrier   Carrier
	Notify    *NotifyService
	Fees      FeePolicy
}

type TierFill struct {
	ListingID int64           `json:"listing_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PurchaseReceipt struct {
	Quantity     int             `json:"quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Fee          decimal.Decimal `json:"fee"`
	SellerIncome decimal.Decimal `json:"seller_income"`
	Tiers        []TierFill      `json:"tiers"`
	Dropped      int             `json:"dropped"`
}

type DelistReceipt struct {
	Rows     int             `json:"rows"`
	Returned int             `json:"returned"`
	Fee      decimal.Decimal `json:"fee"`
	Dropped  int             `json:"dropped"`
}

// TradeStats summarizes one account's trade activity, both sides
// counted, from a cutoff onward.
type TradeStats struct {
	Volume decimal.Decimal `json:"volume"`
	Count  int64           `json:"count"`
	Since  int64           `json:"since"`
}

type plannedTake struct {
	listing domain.Listing
	take    int
}

// Buy purchases qty units of one item identity from a shop, consuming
// price tiers cheapest first. Money and stock move inside one atomic
// boundary: the buyer withdrawal is compensated if any later step fails,
// so an error return leaves stock, funds and the transaction log
// mutually consistent.
func (s *MarketService) Buy(ctx context.Context, shopID int64, id itemhash.Identity, qty int, buyerID string) (*PurchaseReceipt, error) {
	if qty < 1 {
		return nil, domain.Validation("quantity must be at least 1")
	}

	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return nil, shopLookupErr(shopID, err)
	}
	if shop.OwnerID == buyerID {
		return nil, domain.ErrSelfTrade
	}

	rate, err := s.purchaseFeeRate(ctx, id)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < buyRetryLimit; attempt++ {
		receipt, conflict, err := s.tryBuy(ctx, shop, id, qty, buyerID, rate)
		if err != nil {
			return nil, err
		}
		if !conflict {
			return receipt, nil
		}
		// A concurrent purchase consumed part of the plan; re-read and
		// re-plan against the fresh rows.
	}
	return nil, domain.ErrInsufficientStock
}

// purchaseFeeRate resolves the applicable fee as a fraction.
func (s *MarketService) purchaseFeeRate(ctx context.Context, id itemhash.Identity) (decimal.Decimal, error) {
	percent := s.Fees.TransactionFeePercent
	if override, ok, err := s.Overrides.FeeRate(ctx, id); err != nil {
		return decimal.Zero, fmt.Errorf("resolve fee rate: %w", err)
	} else if ok {
		percent = override
	}
	return percent.Div(decimal.NewFromInt(100)), nil
}

func (s *MarketService) tryBuy(ctx context.Context, shop domain.Shop, id itemhash.Identity, qty int, buyerID string, rate decimal.Decimal) (*PurchaseReceipt, bool, error) {
	// The matching pass is read-only: a full feasible plan must exist
	// before anything mutates.
	tiers, err := s.Listings.ByShopAndHash(shop.ID, id.Hash, id.Version)
	if err != nil {
		return nil, false, fmt.Errorf("load listings shop=%d item=%s: %w", shop.ID, id, err)
	}

	remaining := qty
	total := decimal.Zero
	var plan []plannedTake
	for _, l := range tiers {
		if remaining <= 0 {
			break
		}
		take := remaining
		if l.Stock < take {
			take = l.Stock
		}
		plan = append(plan, plannedTake{listing: l, take: take})
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
	}
	if remaining > 0 {
		return nil, false, domain.ErrInsufficientStock
	}

	ok, err := s.Ledger.HasFunds(ctx, buyerID, total)
	if err != nil {
		return nil, false, fmt.Errorf("%w: funds check: %v", domain.ErrLedger, err)
	}
	if !ok {
		return nil, false, domain.ErrInsufficientFunds
	}

	fee := total.Mul(rate)
	sellerIncome := total.Sub(fee)

	// Withdraw first; every failure path below must give the money back.
	if err := s.Ledger.Withdraw(ctx, buyerID, total); err != nil {
		if errors.Is(err, domain.ErrLedger) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: withdraw: %v", domain.ErrLedger, err)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		s.refund(ctx, buyerID, total)
		return nil, false, fmt.Errorf("begin purchase tx: %w", err)
	}

	for _, p := range plan {
		took, err := s.Listings.DecrementStockTx(tx, p.listing.ID, p.take)
		if err != nil {
			_ = tx.Rollback()
			s.refund(ctx, buyerID, total)
			return nil, false, fmt.Errorf("decrement listing %d: %w", p.listing.ID, err)
		}
		if !took {
			// Lost the race on this row; caller re-plans.
			_ = tx.Rollback()
			s.refund(ctx, buyerID, total)
			return nil, true, nil
		}
		if err := s.Listings.DeleteIfEmptyTx(tx, p.listing.ID); err != nil {
			_ = tx.Rollback()
			s.refund(ctx, buyerID, total)
			return nil, false, fmt.Errorf("prune listing %d: %w", p.listing.ID, err)
		}
		if err := s.Trades.InsertTx(tx, buyerID, shop.OwnerID, shop.ID, id.Hash, id.Version, p.take, p.listing.Price); err != nil {
			_ = tx.Rollback()
			s.refund(ctx, buyerID, total)
			return nil, false, fmt.Errorf("record trade: %w", err)
		}
	}

	if err := s.Ledger.Deposit(ctx, shop.OwnerID, sellerIncome); err != nil {
		_ = tx.Rollback()
		s.refund(ctx, buyerID, total)
		return nil, false, fmt.Errorf("%w: deposit seller: %v", domain.ErrLedger, err)
	}

	if err := tx.Commit(); err != nil {
		// Seller was already paid; claw it back along with the refund.
		if werr := s.Ledger.Withdraw(ctx, shop.OwnerID, sellerIncome); werr != nil {
			applog.Error(nil, "market.buy.compensate.seller", werr,
				map[string]any{"seller": shop.OwnerID, "amount": sellerIncome.String()})
		}
		s.refund(ctx, buyerID, total)
		return nil, false, fmt.Errorf("commit purchase: %w", err)
	}

	receipt := &PurchaseReceipt{
		Quantity:     qty,
		TotalCost:    total,
		Fee:          fee,
		SellerIncome: sellerIncome,
	}
	for _, p := range plan {
		receipt.Tiers = append(receipt.Tiers, TierFill{
			ListingID: p.listing.ID, Quantity: p.take, UnitPrice: p.listing.Price,
		})
	}

	// The trade is final; delivery overflow drops into the world.
	for _, p := range plan {
		receipt.Dropped += s.deliverOrDrop(buyerID, p.listing.ItemData, p.take)
	}

	s.Notify.Push(shop.OwnerID, fmt.Sprintf(
		"Your shop %q sold %d x %s for %s",
		shop.Name, qty, describeItem(plan[0].listing.ItemData), sellerIncome))

	return receipt, false, nil
}

// ListItem puts a new price tier up for sale. Every call creates a fresh
// row; tiers sharing an identity are never merged.
func (s *MarketService) ListItem(ctx context.Context, shopID int64, sellerID string, item itemhash.Item, price decimal.Decimal, stock int) (domain.Listing, error) {
	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return domain.Listing{}, shopLookupErr(shopID, err)
	}
	if shop.OwnerID != sellerID {
		return domain.Listing{}, domain.Validation("only the shop owner can list items")
	}
	if price.IsNegative() {
		return domain.Listing{}, domain.Validation("price must not be negative")
	}
	if stock < 1 {
		return domain.Listing{}, domain.Validation("stock must be at least 1")
	}

	id := itemhash.Compute(item)
	banned, err := s.Overrides.Blacklisted(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if banned {
		return domain.Listing{}, domain.ErrBlacklisted
	}

	// The payload describes a single sellable unit; stock carries count.
	unit := item
	unit.Amount = 1
	payload, err := itemhash.Serialize(unit)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("serialize item: %w", err)
	}

	listingID, err := s.Listings.Create(shop.ID, id.Hash, id.Version, payload, price, stock)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return domain.Listing{
		ID: listingID, ShopID: shop.ID,
		ItemHash: id.Hash, HashVersion: id.Version,
		ItemData: payload, Price: price, Stock: stock,
	}, nil
}

// Delist removes every tier of one item identity from the owner's shop,
// charging the configured removal fee per tier and returning the stock.
func (s *MarketService) Delist(ctx context.Context, shopID int64, id itemhash.Identity, ownerID string) (*DelistReceipt, error) {
	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return nil, shopLookupErr(shopID, err)
	}
	if shop.OwnerID != ownerID {
		return nil, domain.Validation("only the shop owner can delist items")
	}

	rows, err := s.Listings.ByShopAndHash(shop.ID, id.Hash, id.Version)
	if err != nil {
		return nil, fmt.Errorf("load listings shop=%d item=%s: %w", shop.ID, id, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	// Fee accrues per tier row, not per delist call.
	totalFee := decimal.Zero
	for _, l := range rows {
		totalFee = totalFee.Add(s.delistFee(l))
	}

	ok, err := s.Ledger.HasFunds(ctx, ownerID, totalFee)
	if err != nil {
		return nil, fmt.Errorf("%w: funds check: %v", domain.ErrLedger, err)
	}
	if !ok {
		return nil, domain.ErrInsufficientFunds
	}
	if err := s.Ledger.Withdraw(ctx, ownerID, totalFee); err != nil {
		if errors.Is(err, domain.ErrLedger) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: withdraw: %v", domain.ErrLedger, err)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		s.refund(ctx, ownerID, totalFee)
		return nil, fmt.Errorf("begin delist tx: %w", err)
	}
	for _, l := range rows {
		if _, err := s.Listings.DeleteTx(tx, l.ID); err != nil {
			_ = tx.Rollback()
			s.refund(ctx, ownerID, totalFee)
			return nil, fmt.Errorf("delete listing %d: %w", l.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.refund(ctx, ownerID, totalFee)
		return nil, fmt.Errorf("commit delist: %w", err)
	}

	receipt := &DelistReceipt{Rows: len(rows), Fee: totalFee}
	for _, l := range rows {
		receipt.Returned += l.Stock
		receipt.Dropped += s.deliverOrDrop(ownerID, l.ItemData, l.Stock)
	}
	return receipt, nil
}

// ShopTrades returns a shop's most recent sales, newest first.
func (s *MarketService) ShopTrades(shopID int64, limit int) ([]domain.TransactionRecord, error) {
	if _, err := s.Shops.ByID(shopID); err != nil {
		return nil, shopLookupErr(shopID, err)
	}
	return s.Trades.ListByShop(shopID, limit)
}

// AccountStats aggregates an account's buy and sell volume since the
// given unix timestamp.
func (s *MarketService) AccountStats(accountID string, since int64) (TradeStats, error) {
	volume, count, err := s.Trades.StatsSince(accountID, since)
	if err != nil {
		return TradeStats{}, fmt.Errorf("trade stats for %s: %w", accountID, err)
	}
	return TradeStats{Volume: volume, Count: count, Since: since}, nil
}

func (s *MarketService) delistFee(l domain.Listing) decimal.Decimal {
	if s.Fees.DelistFeeMode == "percent" {
		stockValue := l.Price.Mul(decimal.NewFromInt(int64(l.Stock)))
		return stockValue.Mul(s.Fees.DelistFeeValue).Div(decimal.NewFromInt(100))
	}
	return s.Fees.DelistFeeValue
}

// deliverOrDrop hands qty units to the recipient and drops what does not
// fit; returns the dropped count.
func (s *MarketService) deliverOrDrop(recipient, itemData string, qty int) int {
	leftover, err := s.Carrier.Deliver(recipient, itemData, qty)
	if err != nil {
		applog.Error(nil, "market.deliver.fail", err, map[string]any{"recipient": recipient, "qty": qty})
		leftover = qty
	}
	if leftover <= 0 {
		return 0
	}
	if err := s.Carrier.Drop(recipient, itemData, leftover); err != nil {
		applog.Error(nil, "market.drop.fail", err, map[string]any{"recipient": recipient, "qty": leftover})
	}
	return leftover
}

// refund compensates a withdrawal after a failed step. A failing refund
// is the one case money can be stranded, so it is logged loudly.
func (s *MarketService) refund(ctx context.Context, accountID string, amount decimal.Decimal) {
	if err := s.Ledger.Deposit(ctx, accountID, amount); err != nil {
		applog.Error(nil, "market.refund.fail", err,
			map[string]any{"account": accountID, "amount": amount.String()})
	}
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

func shopLookupErr(shopID int64, err error) error {
	if isNoRows(err) {
		return fmt.Errorf("shop %d: %w", shopID, domain.ErrNotFound)
	}
	return fmt.Errorf("load shop %d: %w", shopID, err)
}

func describeItem(itemData string) string {
	it, err := itemhash.Deserialize(itemData)
	if err != nil {
		return "item"
	}
	if it.Name != "" {
		return it.Name
	}
	return it.Kind
}

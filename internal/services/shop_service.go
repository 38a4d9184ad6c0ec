package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

// HeatWeights configure the ranking formula. Heat is derived per read
// and never persisted.
type HeatWeights struct {
	Tx    decimal.Decimal
	Boost decimal.Decimal
}

// ShopService covers shop lifecycle and the ranked directory.
type ShopService struct {
	Shops    *repos.ShopRepo
	Listings *repos.ListingRepo
	Weights  HeatWeights
}

func (s *ShopService) Create(ownerID, ownerName, location, name, desc string) (domain.Shop, error) {
	if strings.TrimSpace(name) == "" {
		name = ownerName + "'s Shop"
	}
	if strings.TrimSpace(desc) == "" {
		desc = "A fine establishment."
	}
	shop, err := s.Shops.Create(ownerID, ownerName, location, name, desc)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("create shop: %w", err)
	}
	return shop, nil
}

func (s *ShopService) ByID(shopID int64) (domain.Shop, error) {
	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return domain.Shop{}, shopLookupErr(shopID, err)
	}
	return shop, nil
}

func (s *ShopService) ByOwner(ownerID string) ([]domain.Shop, error) {
	return s.Shops.ByOwner(ownerID)
}

func (s *ShopService) Rename(shopID int64, ownerID, name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validation("shop name must not be empty")
	}
	if err := s.requireOwner(shopID, ownerID); err != nil {
		return err
	}
	_, err := s.Shops.Rename(shopID, name)
	return err
}

func (s *ShopService) Redescribe(shopID int64, ownerID, desc string) error {
	if err := s.requireOwner(shopID, ownerID); err != nil {
		return err
	}
	_, err := s.Shops.Redescribe(shopID, desc)
	return err
}

// Remove deletes the owner's shop along with its listings. Listed stock
// is forfeited, not returned; delist first to get it back.
func (s *ShopService) Remove(shopID int64, ownerID string) error {
	if err := s.requireOwner(shopID, ownerID); err != nil {
		return err
	}
	_, err := s.Shops.Delete(shopID)
	return err
}

func (s *ShopService) ShopListings(shopID int64) ([]domain.Listing, error) {
	if _, err := s.Shops.ByID(shopID); err != nil {
		return nil, shopLookupErr(shopID, err)
	}
	return s.Listings.ByShop(shopID)
}

// Ranked returns every shop ordered hottest first. Heat counts the
// owner's sales across all of their shops, so an owner's track record
// lifts each of their storefronts equally.
func (s *ShopService) Ranked() ([]domain.Shop, error) {
	rows, err := s.Shops.AllWithActivity()
	if err != nil {
		return nil, fmt.Errorf("load shop directory: %w", err)
	}

	out := make([]domain.Shop, 0, len(rows))
	for _, r := range rows {
		shop := r.Shop
		shop.Heat = decimal.NewFromInt(r.TxCount).Mul(s.Weights.Tx).
			Add(shop.Boost.Mul(s.Weights.Boost))
		out = append(out, shop)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Heat.Equal(out[j].Heat) {
			return out[i].Heat.GreaterThan(out[j].Heat)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *ShopService) requireOwner(shopID int64, ownerID string) error {
	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return shopLookupErr(shopID, err)
	}
	if shop.OwnerID != ownerID {
		return domain.Validation("only the shop owner can do that")
	}
	return nil
}

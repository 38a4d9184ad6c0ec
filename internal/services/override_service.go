package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bazaar/internal/cache"
	"bazaar/internal/domain"
	"bazaar/internal/itemhash"
	"bazaar/internal/repos"
)

// OverrideService fronts the blacklist and fee-override tables. The
// matching engine consults it on every listing creation and purchase, so
// reads go through the cache; mutations write the table and invalidate.
type OverrideService struct {
	Overrides *repos.OverrideRepo
	Cache     cache.Cache
	TTL       time.Duration
}

func NewOverrideService(overrides *repos.OverrideRepo, c cache.Cache, ttl time.Duration) *OverrideService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OverrideService{Overrides: overrides, Cache: c, TTL: ttl}
}

func blacklistKey(id itemhash.Identity) string { return "blacklist:" + id.String() }
func feeKey(id itemhash.Identity) string       { return "fee:" + id.String() }

// Blacklisted reports whether the identity is blocked from being listed.
func (s *OverrideService) Blacklisted(ctx context.Context, id itemhash.Identity) (bool, error) {
	val, err := s.Cache.GetOrSet(ctx, blacklistKey(id), s.TTL, func() ([]byte, error) {
		entry, err := s.Overrides.BlacklistGet(id.Hash, id.Version)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return []byte("0"), nil
		}
		return []byte("1"), nil
	})
	if err != nil {
		return false, fmt.Errorf("blacklist lookup %s: %w", id, err)
	}
	return string(val) == "1", nil
}

// FeeRate returns the per-item percentage override, if one exists.
func (s *OverrideService) FeeRate(ctx context.Context, id itemhash.Identity) (decimal.Decimal, bool, error) {
	val, err := s.Cache.GetOrSet(ctx, feeKey(id), s.TTL, func() ([]byte, error) {
		f, err := s.Overrides.FeeGet(id.Hash, id.Version)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return []byte(""), nil
		}
		return []byte(f.Rate.String()), nil
	})
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fee lookup %s: %w", id, err)
	}
	if len(val) == 0 {
		return decimal.Zero, false, nil
	}
	rate, err := decimal.NewFromString(string(val))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fee lookup %s: bad cached rate %q: %w", id, val, err)
	}
	return rate, true, nil
}

// ToggleBlacklist adds the identity when absent and removes it when
// present, returning the resulting state (true = now blacklisted).
// Each step is a single atomic statement: delete first, and only insert
// when nothing was removed. If the insert still collides with a
// concurrent toggle, the retry removes that entry instead.
func (s *OverrideService) ToggleBlacklist(ctx context.Context, id itemhash.Identity, snapshot string) (bool, error) {
	defer func() { _ = s.Cache.Delete(ctx, blacklistKey(id)) }()

	for attempt := 0; ; attempt++ {
		removed, err := s.Overrides.BlacklistDelete(id.Hash, id.Version)
		if err != nil {
			return false, err
		}
		if removed {
			return false, nil
		}
		err = s.Overrides.BlacklistPut(id.Hash, id.Version, snapshot)
		if err == nil {
			return true, nil
		}
		if attempt == 1 {
			return false, fmt.Errorf("toggle blacklist %s: %w", id, err)
		}
	}
}

func (s *OverrideService) SetFeeRate(ctx context.Context, id itemhash.Identity, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return domain.Validation("fee rate must not be negative")
	}
	if err := s.Overrides.FeeSet(id.Hash, id.Version, rate); err != nil {
		return err
	}
	_ = s.Cache.Delete(ctx, feeKey(id))
	return nil
}

func (s *OverrideService) ClearFeeRate(ctx context.Context, id itemhash.Identity) (bool, error) {
	removed, err := s.Overrides.FeeDelete(id.Hash, id.Version)
	if err != nil {
		return false, err
	}
	_ = s.Cache.Delete(ctx, feeKey(id))
	return removed, nil
}

func (s *OverrideService) BlacklistEntries() ([]domain.BlacklistEntry, error) {
	return s.Overrides.BlacklistAll()
}

func (s *OverrideService) FeeOverrides() ([]domain.FeeOverride, error) {
	return s.Overrides.FeeAll()
}

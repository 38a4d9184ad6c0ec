package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/itemhash"
	"bazaar/internal/repos"
)

// AdminService gathers the privileged operations. Every mutation lands
// a row in admin_logs naming who did what to which target.
type AdminService struct {
	Shops     *repos.ShopRepo
	Overrides *OverrideService
	Bulletins *BulletinService
	Notify    *NotifyService
	Logs      *repos.AdminLogRepo
}

// ToggleBlacklist flips the listing ban for an item and returns the new
// state. The item's full description is stored alongside the hash so
// operators can later tell what a bare hash refers to.
func (s *AdminService) ToggleBlacklist(ctx context.Context, admin domain.User, item itemhash.Item) (bool, error) {
	id := itemhash.Compute(item)
	snapshot, err := itemhash.Serialize(item)
	if err != nil {
		return false, fmt.Errorf("serialize snapshot: %w", err)
	}

	banned, err := s.Overrides.ToggleBlacklist(ctx, id, snapshot)
	if err != nil {
		return false, fmt.Errorf("toggle blacklist %s: %w", id, err)
	}

	action := "blacklist.remove"
	if banned {
		action = "blacklist.add"
	}
	s.audit(admin, action, id.String(), describeItem(snapshot))
	return banned, nil
}

func (s *AdminService) SetFeeRate(ctx context.Context, admin domain.User, id itemhash.Identity, rate decimal.Decimal) error {
	if err := s.Overrides.SetFeeRate(ctx, id, rate); err != nil {
		return err
	}
	s.audit(admin, "fee.set", id.String(), rate.String()+"%")
	return nil
}

func (s *AdminService) ClearFeeRate(ctx context.Context, admin domain.User, id itemhash.Identity) error {
	removed, err := s.Overrides.ClearFeeRate(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("fee override %s: %w", id, domain.ErrNotFound)
	}
	s.audit(admin, "fee.clear", id.String(), "")
	return nil
}

// SetBoost fixes a shop's boost to an absolute value.
func (s *AdminService) SetBoost(admin domain.User, shopID int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.Validation("boost must not be negative")
	}
	ok, err := s.Shops.SetBoost(shopID, amount)
	if err != nil {
		return fmt.Errorf("set boost shop=%d: %w", shopID, err)
	}
	if !ok {
		return fmt.Errorf("shop %d: %w", shopID, domain.ErrNotFound)
	}
	s.audit(admin, "boost.set", fmt.Sprintf("shop:%d", shopID), amount.String())
	return nil
}

// AddBoost adjusts a shop's boost by delta; negative deltas take boost
// away.
func (s *AdminService) AddBoost(admin domain.User, shopID int64, delta decimal.Decimal) error {
	ok, err := s.Shops.AddBoost(shopID, delta)
	if err != nil {
		return fmt.Errorf("adjust boost shop=%d: %w", shopID, err)
	}
	if !ok {
		return fmt.Errorf("shop %d: %w", shopID, domain.ErrNotFound)
	}
	s.audit(admin, "boost.adjust", fmt.Sprintf("shop:%d", shopID), delta.String())
	return nil
}

// RemoveShop force-deletes any shop and tells the owner why their
// storefront vanished.
func (s *AdminService) RemoveShop(admin domain.User, shopID int64, reason string) error {
	shop, err := s.Shops.ByID(shopID)
	if err != nil {
		return shopLookupErr(shopID, err)
	}
	if _, err := s.Shops.Delete(shopID); err != nil {
		return fmt.Errorf("delete shop %d: %w", shopID, err)
	}

	msg := fmt.Sprintf("Your shop %q was removed by an administrator.", shop.Name)
	if reason != "" {
		msg += " Reason: " + reason
	}
	s.Notify.Push(shop.OwnerID, msg)
	s.audit(admin, "shop.remove", fmt.Sprintf("shop:%d", shopID), reason)
	return nil
}

// RemoveMessage force-deletes a board message and tells the author.
func (s *AdminService) RemoveMessage(admin domain.User, messageID int64, reason string) error {
	msg, err := s.Bulletins.Messages.ByID(messageID)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("message %d: %w", messageID, domain.ErrNotFound)
		}
		return fmt.Errorf("load message %d: %w", messageID, err)
	}
	if err := s.Bulletins.Delete(messageID, admin.ID, true); err != nil {
		return err
	}

	note := "Your board message was removed by an administrator."
	if reason != "" {
		note += " Reason: " + reason
	}
	s.Notify.Push(msg.OwnerID, note)
	s.audit(admin, "message.remove", fmt.Sprintf("message:%d", messageID), reason)
	return nil
}

func (s *AdminService) BlacklistEntries() ([]domain.BlacklistEntry, error) {
	return s.Overrides.BlacklistEntries()
}

func (s *AdminService) FeeOverrides() ([]domain.FeeOverride, error) {
	return s.Overrides.FeeOverrides()
}

func (s *AdminService) RecentLogs(limit int) ([]domain.AdminLog, error) {
	return s.Logs.ListRecent(limit)
}

func (s *AdminService) audit(admin domain.User, action, target, details string) {
	// Audit rows are best-effort; the action itself already happened.
	_ = s.Logs.Insert(admin.ID, admin.Name, action, target, details)
}

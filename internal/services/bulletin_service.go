package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
)

const maxBulletinLength = 500

// BulletinService runs the public message board. Posting is free for a
// fixed duration; renewals cost money and stack additively onto the
// current expiry, even when the message already lapsed.
type BulletinService struct {
	Messages *repos.BulletinRepo
	Ledger   Ledger

	PostDuration  time.Duration
	RenewDuration time.Duration
	RenewPrice    decimal.Decimal
}

func (s *BulletinService) Post(ownerID, ownerName, content string) (domain.BulletinMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.BulletinMessage{}, domain.Validation("message must not be empty")
	}
	if len(content) > maxBulletinLength {
		return domain.BulletinMessage{}, domain.Validation("message exceeds %d characters", maxBulletinLength)
	}

	now := time.Now().Unix()
	expire := now + int64(s.PostDuration.Seconds())
	id, err := s.Messages.Insert(ownerID, ownerName, content, now, expire)
	if err != nil {
		return domain.BulletinMessage{}, fmt.Errorf("post message: %w", err)
	}
	return domain.BulletinMessage{
		ID: id, OwnerID: ownerID, OwnerName: ownerName,
		Content: content, CreatedAt: now, ExpireAt: expire,
	}, nil
}

// Renew charges the renewal price and extends the message's expiry by
// the renewal duration. The extension is applied to the stored expiry,
// not to now, so back-to-back renewals accumulate.
func (s *BulletinService) Renew(ctx context.Context, id int64, ownerID string) (domain.BulletinMessage, error) {
	msg, err := s.Messages.ByID(id)
	if err != nil {
		if isNoRows(err) {
			return domain.BulletinMessage{}, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
		}
		return domain.BulletinMessage{}, fmt.Errorf("load message %d: %w", id, err)
	}
	if msg.OwnerID != ownerID {
		return domain.BulletinMessage{}, domain.Validation("only the author can renew a message")
	}

	ok, err := s.Ledger.HasFunds(ctx, ownerID, s.RenewPrice)
	if err != nil {
		return domain.BulletinMessage{}, fmt.Errorf("%w: funds check: %v", domain.ErrLedger, err)
	}
	if !ok {
		return domain.BulletinMessage{}, domain.ErrInsufficientFunds
	}
	if err := s.Ledger.Withdraw(ctx, ownerID, s.RenewPrice); err != nil {
		if errors.Is(err, domain.ErrLedger) {
			return domain.BulletinMessage{}, err
		}
		return domain.BulletinMessage{}, fmt.Errorf("%w: withdraw: %v", domain.ErrLedger, err)
	}

	add := int64(s.RenewDuration.Seconds())
	renewed, err := s.Messages.Renew(id, add)
	if err != nil || !renewed {
		// Paid but not extended; give the money back.
		if derr := s.Ledger.Deposit(ctx, ownerID, s.RenewPrice); derr != nil {
			applog.Error(nil, "bulletin.renew.refund.fail", derr,
				map[string]any{"owner": ownerID, "amount": s.RenewPrice.String()})
		}
		if err != nil {
			return domain.BulletinMessage{}, fmt.Errorf("renew message %d: %w", id, err)
		}
		return domain.BulletinMessage{}, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}

	msg.ExpireAt += add
	return msg, nil
}

// Delete removes a message. Admins may remove anyone's.
func (s *BulletinService) Delete(id int64, requesterID string, isAdmin bool) error {
	msg, err := s.Messages.ByID(id)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("load message %d: %w", id, err)
	}
	if msg.OwnerID != requesterID && !isAdmin {
		return domain.Validation("only the author can delete a message")
	}
	_, err = s.Messages.Delete(id)
	return err
}

func (s *BulletinService) Active() ([]domain.BulletinMessage, error) {
	return s.Messages.Active(time.Now().Unix())
}

func (s *BulletinService) ByOwner(ownerID string) ([]domain.BulletinMessage, error) {
	return s.Messages.ByOwner(ownerID)
}

// Sweep purges lapsed messages and returns how many went.
func (s *BulletinService) Sweep() (int64, error) {
	return s.Messages.DeleteExpired(time.Now().Unix())
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (s *BulletinService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := s.Sweep()
				if err != nil {
					applog.Error(nil, "bulletin.sweep.fail", err, nil)
				} else if n > 0 {
					applog.Info(nil, "bulletin.sweep", map[string]any{"removed": n})
				}
			}
		}
	}()
}

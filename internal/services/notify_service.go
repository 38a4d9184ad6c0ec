package services

import (
	"fmt"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
)

// NotifyService delivers messages immediately when the recipient is
// reachable and queues them otherwise. Queued messages survive restarts
// and drain in FIFO order.
type NotifyService struct {
	Notifications *repos.NotificationRepo
	Presence      Presence
}

// Push sends text to the recipient, falling back to the durable queue
// when they are offline or the live send fails.
func (s *NotifyService) Push(recipientID, text string) {
	if s.Presence != nil && s.Presence.Online(recipientID) {
		if err := s.Presence.Send(recipientID, text); err == nil {
			return
		}
	}
	if err := s.Notifications.Insert(recipientID, text); err != nil {
		applog.Error(nil, "notify.enqueue.fail", err, map[string]any{"recipient": recipientID})
	}
}

// Drain hands over everything queued for the recipient, oldest first,
// removing it so nothing is delivered twice.
func (s *NotifyService) Drain(recipientID string) ([]domain.Notification, error) {
	out, err := s.Notifications.Drain(recipientID)
	if err != nil {
		return nil, fmt.Errorf("drain notifications for %s: %w", recipientID, err)
	}
	return out, nil
}

func (s *NotifyService) Pending(recipientID string) (int64, error) {
	return s.Notifications.CountFor(recipientID)
}

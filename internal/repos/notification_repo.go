package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Insert(recipientID, message string) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications(recipient_id, message, created_at) VALUES (?, ?, ?)
	`, recipientID, message, time.Now().Unix())
	return err
}

// Drain reads and deletes everything queued for one recipient as a single
// transaction, in creation order. A notification is delivered at most once.
func (r *NotificationRepo) Drain(recipientID string) ([]domain.Notification, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var out []domain.Notification
	if err := tx.Select(&out, `
		SELECT id, recipient_id, message, created_at
		FROM notifications WHERE recipient_id = ?
		ORDER BY created_at ASC, id ASC
	`, recipientID); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, tx.Commit()
	}
	// Delete exactly the rows handed back. A row committed by a concurrent
	// push after the read would survive a blanket recipient delete only on
	// some isolation levels; pinning the ids makes it stay queued on all.
	ids := make([]int64, len(out))
	for i, n := range out {
		ids[i] = n.ID
	}
	query, args, err := sqlx.In(`DELETE FROM notifications WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepo) CountFor(recipientID string) (int64, error) {
	var n int64
	err := r.db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE recipient_id = ?`, recipientID)
	return n, err
}

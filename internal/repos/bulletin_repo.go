package repos

import (
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type BulletinRepo struct{ db *sqlx.DB }

func NewBulletinRepo(db *sqlx.DB) *BulletinRepo { return &BulletinRepo{db: db} }

const bulletinColumns = `id, owner_id, owner_name, content, created_at, expire_at`

func (r *BulletinRepo) Insert(ownerID, ownerName, content string, createdAt, expireAt int64) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO bulletin_messages(owner_id, owner_name, content, created_at, expire_at)
		VALUES (?, ?, ?, ?, ?)
	`, ownerID, ownerName, content, createdAt, expireAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *BulletinRepo) ByID(id int64) (domain.BulletinMessage, error) {
	var m domain.BulletinMessage
	err := r.db.Get(&m, `SELECT `+bulletinColumns+` FROM bulletin_messages WHERE id = ?`, id)
	return m, err
}

// Active returns only messages whose expiry is still ahead of now,
// newest first.
func (r *BulletinRepo) Active(now int64) ([]domain.BulletinMessage, error) {
	var out []domain.BulletinMessage
	err := r.db.Select(&out, `
		SELECT `+bulletinColumns+` FROM bulletin_messages
		WHERE expire_at > ?
		ORDER BY created_at DESC, id DESC
	`, now)
	return out, err
}

func (r *BulletinRepo) ByOwner(ownerID string) ([]domain.BulletinMessage, error) {
	var out []domain.BulletinMessage
	err := r.db.Select(&out, `
		SELECT `+bulletinColumns+` FROM bulletin_messages
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	return out, err
}

// Renew extends the expiry additively. Renewing an expired message is
// allowed; the addition may or may not bring it back above now.
func (r *BulletinRepo) Renew(id, addSeconds int64) (bool, error) {
	res, err := r.db.Exec(`UPDATE bulletin_messages SET expire_at = expire_at + ? WHERE id = ?`, addSeconds, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *BulletinRepo) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM bulletin_messages WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteExpired is the housekeeping sweep; public listing already filters
// on expiry, so correctness does not depend on it.
func (r *BulletinRepo) DeleteExpired(now int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM bulletin_messages WHERE expire_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type ShopRepo struct{ db *sqlx.DB }

func NewShopRepo(db *sqlx.DB) *ShopRepo { return &ShopRepo{db: db} }

// ShopActivity pairs a shop with its owner's historical sale count,
// used by ranking.
type ShopActivity struct {
	domain.Shop
	TxCount int64 `db:"tx_count"`
}

const shopColumns = `id, owner_id, owner_name, location, name, description, owner_index, boost, created_at`

// Create inserts a shop, assigning the owner's next 1-based index as
// max(existing)+1. Indexes are never reused after deletion.
func (r *ShopRepo) Create(ownerID, ownerName, location, name, desc string) (domain.Shop, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Shop{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var maxIdx sql.NullInt64
	if err := tx.Get(&maxIdx, `SELECT MAX(owner_index) FROM shops WHERE owner_id = ?`, ownerID); err != nil && err != sql.ErrNoRows {
		return domain.Shop{}, err
	}
	idx := int(maxIdx.Int64) + 1
	now := time.Now().Unix()

	res, err := tx.Exec(`
		INSERT INTO shops(owner_id, owner_name, location, name, description, owner_index, boost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, '0', ?)
	`, ownerID, ownerName, location, name, desc, idx, now)
	if err != nil {
		return domain.Shop{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Shop{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Shop{}, err
	}

	return domain.Shop{
		ID: id, OwnerID: ownerID, OwnerName: ownerName, Location: location,
		Name: name, Description: desc, OwnerIndex: idx,
		Boost: decimal.Zero, CreatedAt: now,
	}, nil
}

// ByID returns sql.ErrNoRows when the shop does not exist.
func (r *ShopRepo) ByID(id int64) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.Get(&s, `SELECT `+shopColumns+` FROM shops WHERE id = ?`, id)
	return s, err
}

func (r *ShopRepo) ByOwner(ownerID string) ([]domain.Shop, error) {
	var out []domain.Shop
	err := r.db.Select(&out, `SELECT `+shopColumns+` FROM shops WHERE owner_id = ? ORDER BY owner_index`, ownerID)
	return out, err
}

func (r *ShopRepo) ByOwnerAndIndex(ownerID string, index int) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.Get(&s, `SELECT `+shopColumns+` FROM shops WHERE owner_id = ? AND owner_index = ?`, ownerID, index)
	return s, err
}

// AllWithActivity returns every shop with the count of transactions where
// the shop owner was the seller, across all of that owner's shops.
func (r *ShopRepo) AllWithActivity() ([]ShopActivity, error) {
	var out []ShopActivity
	err := r.db.Select(&out, `
		SELECT s.id, s.owner_id, s.owner_name, s.location, s.name, s.description,
		       s.owner_index, s.boost, s.created_at,
		       (SELECT COUNT(*) FROM transactions t WHERE t.seller_id = s.owner_id) AS tx_count
		FROM shops s
	`)
	return out, err
}

func (r *ShopRepo) Rename(id int64, name string) (bool, error) {
	res, err := r.db.Exec(`UPDATE shops SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ShopRepo) Redescribe(id int64, desc string) (bool, error) {
	res, err := r.db.Exec(`UPDATE shops SET description = ? WHERE id = ?`, desc, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ShopRepo) SetBoost(id int64, amount decimal.Decimal) (bool, error) {
	res, err := r.db.Exec(`UPDATE shops SET boost = ? WHERE id = ?`, amount, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AddBoost adjusts boost by delta, which may be negative. Boost is stored
// as a decimal string, so the arithmetic happens here rather than in SQL.
func (r *ShopRepo) AddBoost(id int64, delta decimal.Decimal) (bool, error) {
	var s domain.Shop
	if err := r.db.Get(&s, `SELECT `+shopColumns+` FROM shops WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return r.SetBoost(id, s.Boost.Add(delta))
}

// Delete removes the shop and all its listings.
func (r *ShopRepo) Delete(id int64) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM listings WHERE shop_id = ?`, id); err != nil {
		return false, err
	}
	res, err := tx.Exec(`DELETE FROM shops WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

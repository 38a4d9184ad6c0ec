package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingColumns = `id, shop_id, item_hash, hash_version, item_data, price, stock, created_at`

func (r *ListingRepo) Create(shopID int64, hash string, version int, itemData string, price decimal.Decimal, stock int) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO listings(shop_id, item_hash, hash_version, item_data, price, stock, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, shopID, hash, version, itemData, price, stock, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ListingRepo) ByShop(shopID int64) ([]domain.Listing, error) {
	var out []domain.Listing
	err := r.db.Select(&out, `SELECT `+listingColumns+` FROM listings WHERE shop_id = ? ORDER BY id`, shopID)
	return out, err
}

// ByShopAndHash returns all price tiers of one item identity, cheapest
// first; ties break on insertion order for a deterministic match plan.
func (r *ListingRepo) ByShopAndHash(shopID int64, hash string, version int) ([]domain.Listing, error) {
	var out []domain.Listing
	err := r.db.Select(&out, `
		SELECT `+listingColumns+` FROM listings
		WHERE shop_id = ? AND item_hash = ? AND hash_version = ?
		ORDER BY CAST(price AS DECIMAL(20,8)) ASC, id ASC
	`, shopID, hash, version)
	return out, err
}

func (r *ListingRepo) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ListingRepo) SetStock(id int64, stock int) (bool, error) {
	res, err := r.db.Exec(`UPDATE listings SET stock = ? WHERE id = ?`, stock, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DecrementStockTx atomically subtracts "by" units if enough stock exists.
// A false return means another buyer got there first.
func (r *ListingRepo) DecrementStockTx(tx *sqlx.Tx, id int64, by int) (bool, error) {
	res, err := tx.Exec(`UPDATE listings SET stock = stock - ? WHERE id = ? AND stock >= ?`, by, id, by)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteIfEmptyTx removes a row whose stock reached zero; exhausted tiers
// are deleted, never kept around at zero.
func (r *ListingRepo) DeleteIfEmptyTx(tx *sqlx.Tx, id int64) error {
	_, err := tx.Exec(`DELETE FROM listings WHERE id = ? AND stock <= 0`, id)
	return err
}

func (r *ListingRepo) DeleteTx(tx *sqlx.Tx, id int64) (bool, error) {
	res, err := tx.Exec(`DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

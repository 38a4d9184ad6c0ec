package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// InsertTx appends one record for a single consumed price tier, inside the
// purchase transaction.
func (r *TransactionRepo) InsertTx(tx *sqlx.Tx, buyerID, sellerID string, shopID int64, hash string, version, amount int, price decimal.Decimal) error {
	_, err := tx.Exec(`
		INSERT INTO transactions(buyer_id, seller_id, shop_id, item_hash, hash_version, amount, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, buyerID, sellerID, shopID, hash, version, amount, price, time.Now().Unix())
	return err
}

func (r *TransactionRepo) CountBySeller(sellerID string) (int64, error) {
	var n int64
	err := r.db.Get(&n, `SELECT COUNT(*) FROM transactions WHERE seller_id = ?`, sellerID)
	return n, err
}

func (r *TransactionRepo) ListByShop(shopID int64, limit int) ([]domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.TransactionRecord
	err := r.db.Select(&out, `
		SELECT id, buyer_id, seller_id, shop_id, item_hash, hash_version, amount, price, created_at
		FROM transactions WHERE shop_id = ?
		ORDER BY id DESC LIMIT ?
	`, shopID, limit)
	return out, err
}

// StatsSince aggregates trade volume and count where the account took part
// on either side, from the given unix timestamp onward.
func (r *TransactionRepo) StatsSince(accountID string, since int64) (decimal.Decimal, int64, error) {
	var row struct {
		Volume decimal.NullDecimal `db:"volume"`
		Count  int64               `db:"count"`
	}
	err := r.db.Get(&row, `
		SELECT SUM(CAST(price AS DECIMAL(20,8)) * amount) AS volume, COUNT(*) AS count
		FROM transactions
		WHERE (buyer_id = ? OR seller_id = ?) AND created_at >= ?
	`, accountID, accountID, since)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !row.Volume.Valid {
		return decimal.Zero, row.Count, nil
	}
	return row.Volume.Decimal, row.Count, nil
}

package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

// OverrideRepo persists the two admin override tables keyed by item
// identity: the listing blacklist and the per-item fee rates.
type OverrideRepo struct{ db *sqlx.DB }

func NewOverrideRepo(db *sqlx.DB) *OverrideRepo { return &OverrideRepo{db: db} }

func (r *OverrideRepo) BlacklistGet(hash string, version int) (*domain.BlacklistEntry, error) {
	var e domain.BlacklistEntry
	err := r.db.Get(&e, `
		SELECT item_hash, hash_version, item_snapshot, created_at
		FROM blacklist WHERE item_hash = ? AND hash_version = ?
	`, hash, version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *OverrideRepo) BlacklistPut(hash string, version int, snapshot string) error {
	_, err := r.db.Exec(`
		INSERT INTO blacklist(item_hash, hash_version, item_snapshot, created_at)
		VALUES (?, ?, ?, ?)
	`, hash, version, snapshot, time.Now().Unix())
	return err
}

func (r *OverrideRepo) BlacklistDelete(hash string, version int) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM blacklist WHERE item_hash = ? AND hash_version = ?`, hash, version)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *OverrideRepo) BlacklistAll() ([]domain.BlacklistEntry, error) {
	var out []domain.BlacklistEntry
	err := r.db.Select(&out, `
		SELECT item_hash, hash_version, item_snapshot, created_at
		FROM blacklist ORDER BY created_at DESC
	`)
	return out, err
}

func (r *OverrideRepo) FeeGet(hash string, version int) (*domain.FeeOverride, error) {
	var f domain.FeeOverride
	err := r.db.Get(&f, `
		SELECT item_hash, hash_version, rate, created_at
		FROM fee_overrides WHERE item_hash = ? AND hash_version = ?
	`, hash, version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FeeSet upserts with update-then-insert, which both sqlite and mysql take.
func (r *OverrideRepo) FeeSet(hash string, version int, rate decimal.Decimal) error {
	res, err := r.db.Exec(`UPDATE fee_overrides SET rate = ? WHERE item_hash = ? AND hash_version = ?`, rate, hash, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.Exec(`
		INSERT INTO fee_overrides(item_hash, hash_version, rate, created_at)
		VALUES (?, ?, ?, ?)
	`, hash, version, rate, time.Now().Unix())
	return err
}

func (r *OverrideRepo) FeeDelete(hash string, version int) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM fee_overrides WHERE item_hash = ? AND hash_version = ?`, hash, version)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *OverrideRepo) FeeAll() ([]domain.FeeOverride, error) {
	var out []domain.FeeOverride
	err := r.db.Select(&out, `
		SELECT item_hash, hash_version, rate, created_at
		FROM fee_overrides ORDER BY created_at DESC
	`)
	return out, err
}

package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type AdminLogRepo struct{ db *sqlx.DB }

func NewAdminLogRepo(db *sqlx.DB) *AdminLogRepo { return &AdminLogRepo{db: db} }

func (r *AdminLogRepo) Insert(adminID, adminName, action, target, details string) error {
	_, err := r.db.Exec(`
		INSERT INTO admin_logs(admin_id, admin_name, action, target, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, adminID, adminName, action, target, details, time.Now().Unix())
	return err
}

func (r *AdminLogRepo) ListRecent(limit int) ([]domain.AdminLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.AdminLog
	err := r.db.Select(&out, `
		SELECT id, admin_id, admin_name, action, target, details, created_at
		FROM admin_logs ORDER BY id DESC LIMIT ?
	`, limit)
	return out, err
}

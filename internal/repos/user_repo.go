package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BindSession uses delete-then-insert instead of an upsert so the SQL
// stays portable across both supported drivers.
func (r *UserRepo) BindSession(sid, userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sid); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO sessions(id, user_id, created_at) VALUES (?, ?, ?)`,
		sid, userID, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
		SELECT u.id,u.email,u.name,u.password_hash,u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

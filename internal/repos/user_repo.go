package repos

import (
	"github.com/jmoiron/sqlx"

	"keepsake/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `u.id, u.email, u.name, u.password_hash, u.role`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Get(&u, `SELECT `+userCols+` FROM users u WHERE LOWER(u.email) = LOWER(?)`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// StartSession records an anonymous session so orders placed before a
// login can later be attributed to the user bound to it.
func (r *UserRepo) StartSession(sid string) error {
	_, err := r.db.Exec(`INSERT INTO sessions(id, last_seen) VALUES(?, CURRENT_TIMESTAMP)
	                     ON CONFLICT(id) DO NOTHING`, sid)
	return err
}

// BindSession logs sid in as userID and claims the orders sid placed
// while anonymous.
func (r *UserRepo) BindSession(sid, userID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO sessions(id, user_id, last_seen) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = CURRENT_TIMESTAMP
	`, sid, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE orders SET user_id = ? WHERE session_id = ? AND user_id IS NULL`, userID, sid); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Get(&u, `
		SELECT `+userCols+`
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sid); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.db.Exec(`UPDATE sessions SET user_id = NULL, last_seen = CURRENT_TIMESTAMP WHERE id = ?`, sid)
	return err
}

package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"techstore/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, name, password_hash, role, created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users ORDER BY created_at ASC, rowid ASC`)
	return out, err
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.CreatedAt = now()
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO users(id, email, name, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.Hash, u.Role, u.CreatedAt)
	return err
}

func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) error {
	return affected(r.DB.ExecContext(ctx, `UPDATE users SET role=? WHERE id=?`, role, id))
}

// Delete removes the user; their sessions are unbound by the foreign key.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id))
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`, sid, userID, ts, ts)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role,u.created_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`, now(), sid)
	return err
}

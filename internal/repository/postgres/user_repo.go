package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/model"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. Username uniqueness is enforced by the users_username_key
// constraint, so concurrent registrations cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (username, password_hash, phone)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, u.Username, string(u.PwdHash), u.Phone).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, phone, created_at
FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, phone, created_at
FROM users WHERE username=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

// UpdatePhone sets the phone column and returns the updated row.
func (r *UserRepo) UpdatePhone(ctx context.Context, id int64, phone *string) (*model.User, error) {
	const q = `
UPDATE users SET phone = $1 WHERE id = $2
RETURNING id, username, password_hash, phone, created_at`
	return scanUser(r.db.Pool.QueryRow(ctx, q, phone, id))
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		hash string
	)
	if err := row.Scan(&u.ID, &u.Username, &hash, &u.Phone, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.PwdHash = []byte(hash)
	return &u, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/village-mart/internal/model"
)

// BookingRepo implements BookingRepository using PostgreSQL.
type BookingRepo struct{ db *DB }

// NewBookingRepo constructs a booking repository.
func NewBookingRepo(db *DB) *BookingRepo { return &BookingRepo{db: db} }

// ListByUser returns bookings of one user, newest first. Ties on created_at fall back to id.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `
SELECT id, user_id, products, created_at
FROM bookings
WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.Products, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a booking in a single statement.
func (r *BookingRepo) Create(ctx context.Context, userID int64, products string) (model.Booking, error) {
	const q = `
INSERT INTO bookings (user_id, products)
VALUES ($1, $2)
RETURNING id, user_id, products, created_at`
	var b model.Booking
	if err := r.db.Pool.QueryRow(ctx, q, userID, products).Scan(&b.ID, &b.UserID, &b.Products, &b.CreatedAt); err != nil {
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

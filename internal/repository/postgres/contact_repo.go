package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/village-mart/internal/model"
)

// ContactRepo implements ContactRepository using PostgreSQL.
type ContactRepo struct{ db *DB }

// NewContactRepo constructs a contact message repository.
func NewContactRepo(db *DB) *ContactRepo { return &ContactRepo{db: db} }

// Create stores a visitor message.
func (r *ContactRepo) Create(ctx context.Context, name, message string) (model.ContactMessage, error) {
	const q = `
INSERT INTO contacts (name, message)
VALUES ($1, $2)
RETURNING id, name, message, created_at`
	var m model.ContactMessage
	if err := r.db.Pool.QueryRow(ctx, q, name, message).Scan(&m.ID, &m.Name, &m.Message, &m.CreatedAt); err != nil {
		return model.ContactMessage{}, fmt.Errorf("insert contact: %w", err)
	}
	return m, nil
}

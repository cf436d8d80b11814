package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/village-mart/internal/model"
)

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepo constructs a catalog repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

// List returns every catalog row ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	const q = `
SELECT id, name, price, COALESCE(image_url, '')
FROM products
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

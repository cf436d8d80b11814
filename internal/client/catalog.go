package client

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/and161185/village-mart/internal/model"
)

// StaticProducts are catalog entries known to the client only.
func StaticProducts() []model.Product {
	return []model.Product{
		{ID: 7, Name: "Seasonal Vegetables", Price: decimal.RequireFromString("80.00")},
		{ID: 8, Name: "Local Spices", Price: decimal.RequireFromString("100.00")},
	}
}

// ProductLister is satisfied by *API.
type ProductLister interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// Catalog returns server products followed by static entries whose ids the server did not
// return. When the server fails, the static entries are still returned with the error.
func Catalog(ctx context.Context, api ProductLister) ([]model.Product, error) {
	server, err := api.Products(ctx)
	return Merge(server, StaticProducts()), err
}

// Merge appends extra entries whose ids are not in base.
func Merge(base, extra []model.Product) []model.Product {
	out := make([]model.Product, 0, len(base)+len(extra))
	seen := make(map[int64]struct{}, len(base))
	for _, p := range base {
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range extra {
		if _, ok := seen[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// Filter keeps products whose name contains term, ignoring case. An empty term keeps all.
func Filter(products []model.Product, term string) []model.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the product with id.
func Find(products []model.Product, id int64) (model.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Package cache keeps a read-through copy of the catalog so product listing does not hit
// Postgres on every page view.
package cache

import (
	"context"
	"errors"

	"github.com/and161185/village-mart/internal/model"
)

// Catalog caches the full product list.
type Catalog interface {
	Get(ctx context.Context) ([]model.Product, error)
	Set(ctx context.Context, products []model.Product) error
	Invalidate(ctx context.Context) error
}

// ErrCacheMiss is returned by Get when nothing is cached.
var ErrCacheMiss = errors.New("cache miss")

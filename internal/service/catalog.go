package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/village-mart/internal/cache"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/repository"
)

// CatalogService lists products.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
}

type CatalogServiceImpl struct {
	products repository.ProductRepository
	cache    cache.Catalog
	log      *zap.Logger
}

// NewCatalogService constructs CatalogService. cache may be nil.
func NewCatalogService(products repository.ProductRepository, c cache.Catalog, log *zap.Logger) *CatalogServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogServiceImpl{products: products, cache: c, log: log}
}

// ListProducts is cache-aside: a cache failure never fails the request.
func (s *CatalogServiceImpl) ListProducts(ctx context.Context) ([]model.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			s.log.Warn("catalog cache get", zap.Error(err))
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, products); err != nil {
			s.log.Warn("catalog cache set", zap.Error(err))
		}
	}
	return products, nil
}

// Invalidate drops the cached catalog so the next listing reads the database.
func (s *CatalogServiceImpl) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

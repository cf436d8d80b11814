package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/and161185/village-mart/internal/model"
	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:products"

// RedisCatalog stores the catalog as one JSON value with a jittered TTL.
type RedisCatalog struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCatalog constructs a Redis-backed catalog cache.
func NewRedisCatalog(client *redis.Client, ttl time.Duration) *RedisCatalog {
	return &RedisCatalog{client: client, baseTTL: ttl}
}

// Get returns the cached catalog or ErrCacheMiss.
func (c *RedisCatalog) Get(ctx context.Context) ([]model.Product, error) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}
	return products, nil
}

// Set stores products with the base TTL plus up to 20% jitter.
func (c *RedisCatalog) Set(ctx context.Context, products []model.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached catalog.
func (c *RedisCatalog) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *RedisCatalog) ttl() time.Duration {
	jitter := c.baseTTL / 5
	if jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(jitter)
}

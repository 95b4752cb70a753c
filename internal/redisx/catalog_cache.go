package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CatalogCache keeps rendered catalog views in redis. Every failure is
// logged and treated as a miss.
type CatalogCache struct {
	RDB redis.Cmdable
	TTL time.Duration
	Log *zap.Logger
}

func (c *CatalogCache) Category(ctx context.Context, categoryID int64) ([]shop.ProductView, bool) {
	var items []shop.ProductView
	ok := c.get(ctx, fmt.Sprintf(KeyCategory, categoryID), &items)
	return items, ok
}

func (c *CatalogCache) PutCategory(ctx context.Context, categoryID int64, items []shop.ProductView) {
	c.put(ctx, fmt.Sprintf(KeyCategory, categoryID), items)
}

func (c *CatalogCache) Product(ctx context.Context, id int64) (shop.ProductView, bool) {
	var v shop.ProductView
	ok := c.get(ctx, fmt.Sprintf(KeyProduct, id), &v)
	return v, ok
}

func (c *CatalogCache) PutProduct(ctx context.Context, p shop.ProductView) {
	c.put(ctx, fmt.Sprintf(KeyProduct, p.ID), p)
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) bool {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.logger().Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) put(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	if err := c.RDB.Set(ctx, key, b, ttl).Err(); err != nil {
		c.logger().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CatalogCache) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

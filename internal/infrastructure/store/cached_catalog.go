package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/go-redis/redis/v8"
)

const catalogKeyPrefix = "catalog:"

// CachedCatalog puts a Redis read-through cache in front of another
// CatalogReader for the browsing side. Redis failures are logged and the
// request falls through to the wrapped reader. Cached products can lag the
// catalog by up to the TTL, so anything that freezes prices reads Source.
type CachedCatalog struct {
	next   CatalogReader
	client *redis.Client
	ttl    time.Duration
}

func NewCachedCatalog(next CatalogReader, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// Source returns the uncached reader.
func (cc *CachedCatalog) Source() CatalogReader {
	return cc.next
}

func (cc *CachedCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	var p catalog.Product
	err := cc.fetch(ctx, catalogKeyPrefix+"product:"+strconv.Itoa(id), &p, func() (any, error) {
		return cc.next.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (cc *CachedCatalog) GetProductItem(ctx context.Context, id int) (*catalog.ProductItem, error) {
	return cc.next.GetProductItem(ctx, id)
}

func (cc *CachedCatalog) ListCategories(ctx context.Context, c filter.Criteria) ([]catalog.Category, error) {
	var categories []catalog.Category
	key := catalogKeyPrefix + "categories:" + c.Values().Encode()
	err := cc.fetch(ctx, key, &categories, func() (any, error) {
		return cc.next.ListCategories(ctx, c)
	})
	return categories, err
}

func (cc *CachedCatalog) ListSizes(ctx context.Context) ([]catalog.PizzaSize, error) {
	var sizes []catalog.PizzaSize
	err := cc.fetch(ctx, catalogKeyPrefix+"sizes", &sizes, func() (any, error) {
		return cc.next.ListSizes(ctx)
	})
	return sizes, err
}

func (cc *CachedCatalog) ListTypes(ctx context.Context) ([]catalog.PizzaType, error) {
	var types []catalog.PizzaType
	err := cc.fetch(ctx, catalogKeyPrefix+"types", &types, func() (any, error) {
		return cc.next.ListTypes(ctx)
	})
	return types, err
}

// Invalidate drops every cached catalog entry.
func (cc *CachedCatalog) Invalidate(ctx context.Context) error {
	iter := cc.client.Scan(ctx, 0, catalogKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return cc.client.Del(ctx, keys...).Err()
}

// fetch decodes the cached value into dst, or loads it and caches the JSON.
func (cc *CachedCatalog) fetch(ctx context.Context, key string, dst any, load func() (any, error)) error {
	cached, err := cc.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(cached, dst); jsonErr == nil {
			return nil
		}
		log.Printf("[Catalog] Discarding corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("[Catalog] Cache read failed for %s: %v", key, err)
	}

	value, err := load()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := cc.client.Set(ctx, key, data, cc.ttl).Err(); err != nil {
		log.Printf("[Catalog] Cache write failed for %s: %v", key, err)
	}
	return json.Unmarshal(data, dst)
}

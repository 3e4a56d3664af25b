package goldprice

import (
	"context"
	"errors"
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cacheKeyBase = "gold_price_base"

// Cache holds the most recent base-karat price between feed polls.
type Cache interface {
	GetPrice(ctx context.Context) (decimal.Decimal, bool, error)
	SetPrice(ctx context.Context, price decimal.Decimal) error
}

// RedisCache stores the base price in Redis with a TTL so a dead feed can
// only serve stale prices for a bounded window.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wires the price cache over the shared Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetPrice(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, c.client.CacheKey(cacheKeyBase))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

func (c *RedisCache) SetPrice(ctx context.Context, price decimal.Decimal) error {
	return c.client.Set(ctx, c.client.CacheKey(cacheKeyBase), price.String(), c.ttl)
}

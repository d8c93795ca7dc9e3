package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PriceCacheTTL bounds how long the public price check may serve a stale
// entry if an invalidation is lost.
const PriceCacheTTL = 5 * time.Minute

// PriceCacheKey is the Redis key of the cached price check for barcode.
func PriceCacheKey(barcode string) string { return "price:" + barcode }

// PriceCache drops price check entries after a product's price or stock
// changes. Invalidation is best effort.
type PriceCache interface {
	Invalidate(ctx context.Context, barcodes ...string)
}

// RedisPriceCache deletes the cached entries written by the price check
// handler. A nil client disables it.
type RedisPriceCache struct {
	rdb *redis.Client
}

func NewRedisPriceCache(rdb *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{rdb: rdb}
}

func (c *RedisPriceCache) Invalidate(ctx context.Context, barcodes ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	keys := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		if b != "" {
			keys = append(keys, PriceCacheKey(b))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("price cache invalidation failed")
	}
}

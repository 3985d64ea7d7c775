package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// fillScript stores the listing only if no invalidation happened since
// the caller read the generation.
var fillScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[2])
if (cur or "0") ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// AdvertisedCache keeps the advertised-products listing as one JSON blob.
// A generation counter next to it is bumped on every invalidation, so a
// reader that loaded rows before a write cannot repopulate stale data.
type AdvertisedCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewAdvertisedCache(rdb redis.UniversalClient, ttl time.Duration) *AdvertisedCache {
	return &AdvertisedCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached listing. ok is false on a cache miss.
func (c *AdvertisedCache) Get(ctx context.Context) (items []models.Product, ok bool, err error) {
	b, err := c.rdb.Get(ctx, KeyAdvertisedProducts).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false, fmt.Errorf("decode advertised cache: %w", err)
	}
	return items, true, nil
}

// Generation returns the current invalidation counter. Read it before
// loading the rows passed to Set.
func (c *AdvertisedCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, KeyAdvertisedGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores items if the generation is still gen. stored is false when
// an invalidation raced the load.
func (c *AdvertisedCache) Set(ctx context.Context, gen int64, items []models.Product) (stored bool, err error) {
	b, err := json.Marshal(items)
	if err != nil {
		return false, err
	}

	n, err := fillScript.Run(ctx, c.rdb,
		[]string{KeyAdvertisedProducts, KeyAdvertisedGeneration},
		strconv.FormatInt(gen, 10), b, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the listing and bumps the generation in one transaction.
func (c *AdvertisedCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, KeyAdvertisedProducts)
		pipe.Incr(ctx, KeyAdvertisedGeneration)
		return nil
	})
	return err
}

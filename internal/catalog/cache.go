package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ParameterCache is a redis read-through cache for per-category parameter
// sets. Snapshot building reads the full parameter list of a category on
// every position, so these lookups dominate catalog traffic. Concurrent
// misses for the same category are collapsed with singleflight.
type ParameterCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewParameterCache instantiates the cache helper. A nil client disables
// caching and makes Get call the loader directly.
func NewParameterCache(client *redis.Client, ttl time.Duration) *ParameterCache {
	return &ParameterCache{client: client, ttl: ttl}
}

func parameterCacheKey(categoryID int64) string {
	return fmt.Sprintf("catalog:params:%d", categoryID)
}

// Get returns the parameter set for a category, loading and storing it on a
// cache miss. Redis failures degrade to a direct load, never to an error.
func (c *ParameterCache) Get(ctx context.Context, categoryID int64, load func(context.Context) ([]Parameter, error)) ([]Parameter, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	key := parameterCacheKey(categoryID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var params []Parameter
		if err := json.Unmarshal(payload, &params); err == nil {
			return params, nil
		}
		// Corrupt entry: drop it and fall through to a reload.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		return load(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		params, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(params); err == nil {
			_ = c.client.Set(ctx, key, encoded, c.ttl).Err()
		}
		return params, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Parameter), nil
}

// Invalidate drops the cached parameter set for a category. Called after any
// parameter write so the next snapshot sees current catalog data.
func (c *ParameterCache) Invalidate(ctx context.Context, categoryID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, parameterCacheKey(categoryID)).Err()
}

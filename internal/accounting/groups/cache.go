package groups

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache keeps the per-company group tree in Redis. Listing the tree is by
// far the hottest read (every document form renders it), so concurrent
// identical loads collapse through singleflight.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func treeKey(companyID int64) string {
	return fmt.Sprintf("groups:tree:%d", companyID)
}

// FetchTree loads the cached group list or populates it using the loader.
func (c *Cache) FetchTree(ctx context.Context, companyID int64, loader func(context.Context) ([]AccountGroup, error)) ([]AccountGroup, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := treeKey(companyID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var out []AccountGroup
		if jerr := json.Unmarshal(payload, &out); jerr == nil {
			return out, nil
		}
		// Corrupt entry; fall through and rebuild.
	} else if err != redis.Nil {
		return nil, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]AccountGroup), nil
}

// Invalidate drops a company's cached tree after any write.
func (c *Cache) Invalidate(ctx context.Context, companyID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, treeKey(companyID)).Err()
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	slugCachePrefix = "space:slug:"
	slugCacheTTL    = 24 * time.Hour
)

// SlugCache maps space slugs to ids. Slugs never change and spaces are never
// deleted, so entries only expire to bound memory.
type SlugCache struct {
	client *Client
}

// NewSlugCache creates a new slug cache
func NewSlugCache(client *Client) *SlugCache {
	return &SlugCache{client: client}
}

// Get returns the cached id for slug, or uuid.Nil on a miss
func (c *SlugCache) Get(ctx context.Context, slug string) (uuid.UUID, error) {
	val, err := c.client.rdb.Get(ctx, slugCachePrefix+slug).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to read slug cache: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse cached space id: %w", err)
	}

	return id, nil
}

// Set caches the id of slug
func (c *SlugCache) Set(ctx context.Context, slug string, id uuid.UUID) error {
	return c.client.rdb.Set(ctx, slugCachePrefix+slug, id.String(), slugCacheTTL).Err()
}

// Invalidate removes the cached entry for slug
func (c *SlugCache) Invalidate(ctx context.Context, slug string) error {
	return c.client.rdb.Del(ctx, slugCachePrefix+slug).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carenote/carenote/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for cached principals.
	authCachePrefix = "auth:principal:"
	// authCacheTTL is the time-to-live for cached principals.
	authCacheTTL = 5 * time.Minute
)

// cachedPrincipal represents a principal stored in Redis.
type cachedPrincipal struct {
	UserID      string `json:"user_id"`
	TokenID     string `json:"token_id"`
	TokenPrefix string `json:"token_prefix"`
}

// GetPrincipal retrieves a cached principal by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetPrincipal(ctx context.Context, cacheKey string) (*model.Principal, error) {
	data, err := c.client.Get(ctx, authCachePrefix+cacheKey).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedPrincipal
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.Principal{
		UserID:      cached.UserID,
		TokenID:     cached.TokenID,
		TokenPrefix: cached.TokenPrefix,
	}, nil
}

// SetPrincipal caches a principal.
func (c *Cache) SetPrincipal(ctx context.Context, cacheKey string, p *model.Principal) error {
	data, err := json.Marshal(cachedPrincipal{
		UserID:      p.UserID,
		TokenID:     p.TokenID,
		TokenPrefix: p.TokenPrefix,
	})
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return c.client.Set(ctx, authCachePrefix+cacheKey, data, authCacheTTL).Err()
}

// DeletePrincipal removes a cached principal.
// Used when a token is revoked.
func (c *Cache) DeletePrincipal(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, authCachePrefix+cacheKey).Err()
}

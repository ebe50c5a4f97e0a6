package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	// idempotencyPrefix is the Redis key prefix for mark-done idempotency keys.
	idempotencyPrefix = "idem:done:"

	pendingValue = "pending"
	resultPrefix = "result:"
)

func idempotencyKey(key string) string {
	return idempotencyPrefix + key
}

// decodeIdempotencyValue splits a stored value into (done, result).
func decodeIdempotencyValue(v string) (bool, string) {
	if strings.HasPrefix(v, resultPrefix) {
		return true, strings.TrimPrefix(v, resultPrefix)
	}
	return false, ""
}

// Claim reserves key with SET NX. When the key already exists it returns
// claimed=false together with the stored result, which is empty while the
// first request is still in flight.
func (c *Cache) Claim(ctx context.Context, key string) (bool, string, error) {
	k := idempotencyKey(key)

	ok, err := c.client.SetNX(ctx, k, pendingValue, c.idempotencyTTL).Result()
	if err != nil {
		return false, "", fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	v, err := c.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = c.client.SetNX(ctx, k, pendingValue, c.idempotencyTTL).Result()
		if err != nil {
			return false, "", fmt.Errorf("claim idempotency key: %w", err)
		}
		return ok, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}

	_, result := decodeIdempotencyValue(v)
	return false, result, nil
}

// Complete stores the outcome of a claimed key for replay.
func (c *Cache) Complete(ctx context.Context, key, result string) error {
	if err := c.client.Set(ctx, idempotencyKey(key), resultPrefix+result, c.idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release drops a claim so a failed request can be retried with the same key.
func (c *Cache) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache of values of type T, stored under
// prefix+key. A zero ttl keeps keys until they are deleted.
type ViewCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewViewCache creates a ViewCache backed by client.
func NewViewCache[T any](client *redis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns (nil, false) on a miss or on any decoding error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("ViewCache: read error for key %s: %v", c.prefix+key, err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Write failures are logged, not returned:
// a missed cache write only costs a later database read.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.prefix+key, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("ViewCache: write error for key %s: %v", c.prefix+key, err)
	}
}

// Delete removes key.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		log.Printf("ViewCache: delete error for key %s: %v", c.prefix+key, err)
	}
}

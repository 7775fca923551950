// Package rdx is the Redis-backed cache. Every operation is best effort:
// a store outage turns reads into misses and writes into no-ops.
package rdx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs per cached entity.
const (
	TTLListing    = time.Hour
	TTLDetail     = 2 * time.Hour
	TTLCategories = 24 * time.Hour
	TTLTags       = 24 * time.Hour
	TTLSearch     = 30 * time.Minute
	TTLPopular    = time.Hour
	TTLRelated    = 2 * time.Hour
)

// Key namespaces.
const (
	NSList       = "recipes"
	NSSearch     = "search"
	NSRecipe     = "recipe"
	NSPopular    = "popular"
	NSRelated    = "related"
	NSCategories = "categories"
	NSTags       = "tags"
	NSPosts      = "posts"
	NSPost       = "post"
)

const opTimeout = 2 * time.Second

type Options struct {
	Addr     string
	Password string
	DB       int
}

type Cache struct {
	client *redis.Client
}

// New builds a cache over an existing client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Connect dials Redis and pings it. A failed ping is logged, not returned:
// the cache still works in degraded mode and recovers once Redis is back.
func Connect(ctx context.Context, opts Options) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	c := New(client)
	if err := c.Ping(ctx); err != nil {
		log.Printf("[rdx] Redis at %s unreachable, running without cache: %v", opts.Addr, err)
	} else {
		log.Printf("[rdx] Connected to Redis at %s", opts.Addr)
	}
	return c
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// GenerateKey returns "{type}:{id}" or, when params is non-empty,
// "{type}:{id}:{base64(json(params))}". encoding/json writes map keys in
// sorted order, so the key does not depend on insertion order.
func GenerateKey(entityType, identifier string, params map[string]any) string {
	key := entityType + ":" + identifier
	if len(params) == 0 {
		return key
	}
	raw, err := json.Marshal(params)
	if err != nil {
		log.Printf("[rdx] GenerateKey marshal: %v", err)
		return key
	}
	return key + ":" + base64.StdEncoding.EncodeToString(raw)
}

// Get returns the cached value and whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[rdx] GET %s: %v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[rdx] SET %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) Delete(ctx context.Context, keys ...string) bool {
	if len(keys) == 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[rdx] DEL %v: %v", keys, err)
		return false
	}
	return true
}

// GetJSON decodes a cached JSON value into dst. Undecodable entries are
// dropped and reported as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	b, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Printf("[rdx] corrupt entry %s: %v", key, err)
		c.Delete(ctx, key)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	b, err := json.Marshal(value)
	if err != nil {
		log.Printf("[rdx] SetJSON marshal %s: %v", key, err)
		return false
	}
	return c.Set(ctx, key, b, ttl)
}

// InvalidatePrefix deletes every key starting with prefix using SCAN, and
// returns how many were removed.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) (int, bool) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			log.Printf("[rdx] SCAN %s*: %v", prefix, err)
			return removed, false
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				log.Printf("[rdx] DEL batch for %s*: %v", prefix, err)
				return removed, false
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, true
		}
	}
}

// Namespace invalidates every key under ns.
func (c *Cache) Namespace(ctx context.Context, ns string) bool {
	_, ok := c.InvalidatePrefix(ctx, ns+":")
	return ok
}

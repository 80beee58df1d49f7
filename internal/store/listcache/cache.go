package listcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/validate"
	"github.com/redis/go-redis/v9"
)

const versionKey = "lc:ver" // global version counter in Redis

// Cache stores encoded list responses under a versioned prefix. Writers bump
// the version instead of deleting keys; stale entries age out by TTL.
// A nil *Cache, a nil client or LIST_CACHE_DISABLE=1 turns every call into a no-op.
type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	shortTO time.Duration // per-op timeout
}

func New(rdb *redis.Client) *Cache {
	if rdb == nil || os.Getenv("LIST_CACHE_DISABLE") == "1" {
		return nil
	}
	return &Cache{
		rdb:     rdb,
		ttl:     validate.EnvDuration("LIST_CACHE_TTL", 5*time.Minute),
		shortTO: validate.EnvDuration("LIST_CACHE_TIMEOUT", 150*time.Millisecond),
	}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// Key resolves the cache key for scope+canonical under the current version.
// ok is false when the version cannot be read; callers then bypass the cache.
func (c *Cache) Key(ctx context.Context, scope, canonical string) (key string, ok bool) {
	if !c.Enabled() {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	ver, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 0
	} else if err != nil {
		log.Printf("[listcache] version read failed: %v; bypassing cache", err)
		return "", false
	}
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("lc:v%d:%s:%s", ver, scope, hex.EncodeToString(sum[:12])), true
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() || key == "" {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[listcache] get failed: %v", err)
		}
		return nil, false
	}
	return b, true
}

func (c *Cache) Set(ctx context.Context, key string, body []byte) {
	if !c.Enabled() || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()
	if err := c.rdb.SetEx(ctx, key, body, c.ttl).Err(); err != nil {
		log.Printf("[listcache] set failed: %v", err)
	}
}

// BumpVersion invalidates every cached list. Call it after a successful write.
func (c *Cache) BumpVersion(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("bump list cache version: %w", err)
	}
	return nil
}

package redisx

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache caches order list pages per status tab. Invalidating a tab bumps
// its version so every page cached under the old version stops being read.
type ListCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewListCache(r *redis.Client, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = TTLListCache
	}
	return &ListCache{R: r, TTL: ttl}
}

func queryHash(query string) string {
	sum := sha1.Sum([]byte(query))
	return hex.EncodeToString(sum[:8])
}

func (c *ListCache) version(ctx context.Context, tab string) (int64, error) {
	v, err := c.R.Get(ctx, fmt.Sprintf(KeyListVersion, tab)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *ListCache) pageKey(tab string, ver int64, query string) string {
	return fmt.Sprintf(KeyListPage, tab, ver, queryHash(query))
}

// Get returns the cached page for query under the tab's current version,
// and that version. Pass the version back to Set so a page read before an
// invalidation can never land under the newer version.
func (c *ListCache) Get(ctx context.Context, tab, query string) ([]byte, int64, bool, error) {
	ver, err := c.version(ctx, tab)
	if err != nil {
		return nil, 0, false, err
	}
	b, err := c.R.Get(ctx, c.pageKey(tab, ver, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ver, false, nil
	}
	if err != nil {
		return nil, ver, false, err
	}
	return b, ver, true, nil
}

// Set stores page under ver, the version returned by the Get that missed.
func (c *ListCache) Set(ctx context.Context, tab, query string, ver int64, page []byte) error {
	return c.R.Set(ctx, c.pageKey(tab, ver, query), page, c.TTL).Err()
}

func (c *ListCache) GetCounts(ctx context.Context) ([]byte, bool, error) {
	b, err := c.R.Get(ctx, KeyStatusCounts).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *ListCache) SetCounts(ctx context.Context, counts []byte) error {
	return c.R.Set(ctx, KeyStatusCounts, counts, c.TTL).Err()
}

// Invalidate bumps the given tabs plus TabAll and drops the counts.
func (c *ListCache) Invalidate(ctx context.Context, tabs ...string) error {
	seen := map[string]bool{TabAll: true}
	pipe := c.R.TxPipeline()
	pipe.Incr(ctx, fmt.Sprintf(KeyListVersion, TabAll))
	for _, t := range tabs {
		if seen[t] {
			continue
		}
		seen[t] = true
		pipe.Incr(ctx, fmt.Sprintf(KeyListVersion, t))
	}
	pipe.Del(ctx, KeyStatusCounts)
	_, err := pipe.Exec(ctx)
	return err
}

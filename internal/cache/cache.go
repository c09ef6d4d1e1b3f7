// Package cache implements the two-tier scrape-result cache: a fast Redis
// tier in front of a durable Postgres tier, with read-through backfill and
// concurrent dual-tier writes.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"brandintel/internal/metrics"
	"brandintel/internal/model"
	"brandintel/internal/scrapeutil"
)

// DurablePool is the subset of *pgxpool.Pool's interface the cache's
// durable tier needs. Declaring it lets tests substitute pgxmock for a
// real connection pool.
type DurablePool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Cache is the two-tier cache keyed by a canonical URL's hash.
type Cache struct {
	fast    *redis.Client
	durable DurablePool
	logger  *slog.Logger
}

// New constructs a Cache over an already-connected Redis client and
// Postgres pool.
func New(fast *redis.Client, durable DurablePool, logger *slog.Logger) *Cache {
	return &Cache{fast: fast, durable: durable, logger: logger}
}

func key(url string) string {
	return "brandintel:scrape:" + scrapeutil.Hash(url)
}

// Get looks up url, first in the fast tier, then the durable tier,
// backfilling the fast tier on a durable hit.
func (c *Cache) Get(ctx context.Context, url string) (*model.ScrapeResult, bool) {
	hash := scrapeutil.Hash(url)
	redisKey := key(url)

	if raw, err := c.fast.Get(ctx, redisKey).Bytes(); err == nil {
		var result model.ScrapeResult
		if jsonErr := json.Unmarshal(raw, &result); jsonErr == nil {
			metrics.RecordCacheHit("fast")
			return &result, true
		}
	}
	metrics.RecordCacheMiss("fast")

	var body []byte
	var expiresAt time.Time
	row := c.durable.QueryRow(ctx, `SELECT body, expires_at FROM scraping_cache WHERE url_hash = $1`, hash)
	if err := row.Scan(&body, &expiresAt); err != nil {
		metrics.RecordCacheMiss("durable")
		return nil, false
	}
	if time.Now().After(expiresAt) {
		metrics.RecordCacheMiss("durable")
		return nil, false
	}

	var result model.ScrapeResult
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.RecordCacheMiss("durable")
		return nil, false
	}
	metrics.RecordCacheHit("durable")

	ttl := time.Until(expiresAt)
	if ttl > 0 {
		if err := c.fast.Set(ctx, redisKey, body, ttl).Err(); err != nil {
			c.logger.Warn("cache backfill failed", "error", err, "url_hash", hash)
		}
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = c.durable.Exec(bgCtx, `UPDATE scraping_cache SET access_count = access_count + 1, last_accessed_at = now() WHERE url_hash = $1`, hash)
	}()

	return &result, true
}

// Put writes body to both tiers concurrently with ttl. Cache write
// failures are logged but never propagated — the cache is an
// optimization, not a correctness boundary.
func (c *Cache) Put(ctx context.Context, url string, body model.ScrapeResult, ttl time.Duration) {
	hash := scrapeutil.Hash(url)
	raw, err := json.Marshal(body)
	if err != nil {
		c.logger.Warn("cache marshal failed", "error", err, "url_hash", hash)
		return
	}

	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		if err := c.fast.Set(ctx, key(url), raw, ttl).Err(); err != nil {
			c.logger.Warn("fast tier write failed", "error", err, "url_hash", hash)
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		now := time.Now().UTC()
		expiresAt := now.Add(ttl)
		_, err := c.durable.Exec(ctx, `
			INSERT INTO scraping_cache (url_hash, original_url, body, page_count, access_count, scraped_at, expires_at, last_accessed_at)
			VALUES ($1, $2, $3, $4, 0, $5, $6, $5)
			ON CONFLICT (url_hash) DO UPDATE SET
				original_url = EXCLUDED.original_url,
				body = EXCLUDED.body,
				page_count = EXCLUDED.page_count,
				scraped_at = EXCLUDED.scraped_at,
				expires_at = EXCLUDED.expires_at,
				access_count = scraping_cache.access_count + 1,
				last_accessed_at = EXCLUDED.last_accessed_at
		`, hash, url, raw, len(body.Pages), now, expiresAt)
		if err != nil {
			c.logger.Warn("durable tier write failed", "error", err, "url_hash", hash)
		}
	}()

	<-done
	<-done
}

// Invalidate deletes url from both tiers. Errors are logged, not
// propagated.
func (c *Cache) Invalidate(ctx context.Context, url string) {
	hash := scrapeutil.Hash(url)
	if err := c.fast.Del(ctx, key(url)).Err(); err != nil {
		c.logger.Warn("fast tier invalidate failed", "error", err, "url_hash", hash)
	}
	if _, err := c.durable.Exec(ctx, `DELETE FROM scraping_cache WHERE url_hash = $1`, hash); err != nil {
		c.logger.Warn("durable tier invalidate failed", "error", err, "url_hash", hash)
	}
}

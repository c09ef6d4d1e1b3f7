// Package scraper turns a brand URL into a ScrapeResult by discovering a
// fixed set of candidate pages, probing them for reachability, rendering
// the survivors through a pool of headless browsers, and deduplicating
// near-identical pages. A two-tier cache sits in front of the whole
// pipeline.
package scraper

import (
	"context"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/browserpool"
	"brandintel/internal/cache"
	"brandintel/internal/config"
	"brandintel/internal/metrics"
	"brandintel/internal/model"
	"brandintel/internal/scrapeutil"
)

// Scraper runs the canonicalize → discover → probe → fetch → dedupe
// pipeline behind a TwoTierCache.
type Scraper struct {
	pool     *browserpool.Pool
	cache    *cache.Cache
	cfg      config.ScraperConfig
	cacheTTL time.Duration
}

// New constructs a Scraper over an already-initialized browser pool and
// cache. cacheTTL is the duration a freshly scraped result is kept in both
// cache tiers.
func New(pool *browserpool.Pool, c *cache.Cache, cfg config.ScraperConfig, cacheTTL time.Duration) *Scraper {
	return &Scraper{pool: pool, cache: c, cfg: cfg, cacheTTL: cacheTTL}
}

// Scrape converts brandURL into a ScrapeResult, serving from cache when
// possible.
func (s *Scraper) Scrape(ctx context.Context, brandURL string) (*model.ScrapeResult, error) {
	canon, err := scrapeutil.Canonicalize(brandURL)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeValidation, "invalid brand url", err)
	}

	if cached, ok := s.cache.Get(ctx, canon); ok {
		return cached, nil
	}

	start := time.Now()
	domain := scrapeutil.Domain(canon)

	candidates := discover(canon)
	probed, robotsSkipped := s.probe(ctx, candidates)
	if len(probed) == 0 {
		return nil, apierr.New(apierr.CodeInsufficientData, "no candidate pages were reachable")
	}

	pages := s.fetchAll(ctx, probed)
	if len(pages) == 0 {
		return nil, apierr.New(apierr.CodeInsufficientData, "no candidate pages could be rendered")
	}

	deduped := dedupe(pages, s.jaccardThreshold())

	result := &model.ScrapeResult{
		URLHash: scrapeutil.Hash(canon),
		Pages:   deduped,
		Meta: model.ScrapeResultMeta{
			InputURL:   brandURL,
			Domain:     domain,
			Discovered:    len(candidates),
			Probed:        len(probed),
			Scraped:       len(pages),
			AfterDedup:    len(deduped),
			RobotsSkipped: robotsSkipped,
			DurationMs:    time.Since(start).Milliseconds(),
		},
		CapturedAt: time.Now().UTC(),
	}

	s.cache.Put(ctx, canon, *result, s.ttl())
	metrics.RecordScrapeDuration(domain, time.Since(start).Milliseconds())

	return result, nil
}

func (s *Scraper) jaccardThreshold() float64 {
	if s.cfg.JaccardThreshold > 0 {
		return s.cfg.JaccardThreshold
	}
	return 0.8
}

func (s *Scraper) ttl() time.Duration {
	if s.cacheTTL > 0 {
		return s.cacheTTL
	}
	return 24 * time.Hour
}

func (s *Scraper) leaseWait() time.Duration {
	if s.cfg.LeaseWaitMs > 0 {
		return time.Duration(s.cfg.LeaseWaitMs) * time.Millisecond
	}
	return 30 * time.Second
}

func (s *Scraper) pageTimeout() time.Duration {
	if s.cfg.PageTimeoutMs > 0 {
		return time.Duration(s.cfg.PageTimeoutMs) * time.Millisecond
	}
	return 15 * time.Second
}

func (s *Scraper) probeTimeout() time.Duration {
	if s.cfg.ProbeTimeoutMs > 0 {
		return time.Duration(s.cfg.ProbeTimeoutMs) * time.Millisecond
	}
	return 5 * time.Second
}

func (s *Scraper) concurrency() int {
	if s.cfg.Concurrency > 0 {
		return s.cfg.Concurrency
	}
	return 5
}

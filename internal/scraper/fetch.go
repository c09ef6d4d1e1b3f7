package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"brandintel/internal/model"
)

// fetchAll renders urls in batches of s.concurrency(), each fetch leasing
// its own browser worker. Individual failures (timeout, navigation error,
// parse error) are logged and dropped — only a zero-page result is fatal.
func (s *Scraper) fetchAll(ctx context.Context, urls []string) []model.Page {
	var pages []model.Page
	batch := s.concurrency()

	for start := 0; start < len(urls); start += batch {
		end := start + batch
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]

		results := make([]*model.Page, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		for i, u := range chunk {
			i, u := i, u
			g.Go(func() error {
				page, err := s.fetchOne(gctx, u)
				if err != nil {
					slog.Warn("page fetch failed", "url", u, "error", err)
					return nil // absorbed per fail semantics; not fatal
				}
				results[i] = page
				return nil
			})
		}
		_ = g.Wait()

		for _, p := range results {
			if p != nil {
				pages = append(pages, *p)
			}
		}
	}

	return pages
}

func (s *Scraper) fetchOne(ctx context.Context, rawURL string) (*model.Page, error) {
	lease, err := s.pool.Acquire(ctx, s.leaseWait())
	if err != nil {
		return nil, err
	}

	pc, err := s.pool.NewContext(lease)
	if err != nil {
		s.pool.Release(nil, lease)
		return nil, err
	}
	defer s.pool.Release(pc, lease)

	page := pc.Page().Context(ctx).Timeout(s.pageTimeout())

	if err := page.Navigate(rawURL); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}
	waitIdle := page.WaitRequestIdle(time.Second, nil, nil, false)
	waitIdle()

	htmlStr, err := page.HTML()
	if err != nil {
		return nil, err
	}

	title, body, err := extractBody(htmlStr)
	if err != nil {
		return nil, err
	}

	hostname := ""
	if u, parseErr := url.Parse(rawURL); parseErr == nil {
		hostname = u.Hostname()
	}

	return &model.Page{
		URL:        rawURL,
		Title:      title,
		Body:       body,
		Markdown:   extractMarkdown(htmlStr, hostname),
		CapturedAt: time.Now().UTC(),
	}, nil
}

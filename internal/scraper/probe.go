package scraper

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"
)

const scraperUserAgent = "brandintel-scraper"

// probe fetches robots.txt once for the candidates' shared host, drops
// candidates it disallows, then HEAD-checks the rest in parallel (no
// explicit concurrency cap beyond the candidate-list size) and keeps
// those answering 2xx. Returns the survivors and the count dropped by
// robots.txt.
func (s *Scraper) probe(ctx context.Context, candidates []string) ([]string, int) {
	client := &http.Client{Timeout: s.probeTimeout()}

	allowed := candidates
	robotsSkipped := 0
	if robots := fetchRobots(ctx, client, candidates); robots != nil {
		grp := robots.FindGroup(scraperUserAgent)
		allowed = make([]string, 0, len(candidates))
		for _, u := range candidates {
			if grp.Test(u) {
				allowed = append(allowed, u)
			} else {
				robotsSkipped++
			}
		}
	}

	results := make([]string, len(allowed))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range allowed {
		i, u := i, u
		g.Go(func() error {
			if probeOne(gctx, client, u) {
				results[i] = u
			}
			return nil
		})
	}
	_ = g.Wait() // probeOne never errors; failures just leave results[i] empty

	survivors := make([]string, 0, len(allowed))
	for _, u := range results {
		if u != "" {
			survivors = append(survivors, u)
		}
	}
	return survivors, robotsSkipped
}

func probeOne(ctx context.Context, client *http.Client, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// fetchRobots fetches and parses robots.txt for the host shared by
// candidates. Returns nil if candidates is empty, the host can't be
// parsed, or robots.txt can't be fetched — callers then treat every
// candidate as allowed.
func fetchRobots(ctx context.Context, client *http.Client, candidates []string) *robotstxt.RobotsData {
	if len(candidates) == 0 {
		return nil
	}
	base, err := url.Parse(candidates[0])
	if err != nil {
		return nil
	}

	robotsURL := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return robots
}

// Package evidence rejects or down-weights citations that do not
// correspond to a reachable page on an allow-listed domain.
package evidence

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"brandintel/internal/model"
	"brandintel/internal/scrapeutil"
)

const probeTimeout = 5 * time.Second

// Validator HEAD-probes cited URLs in parallel against an allow-list of
// domains and computes a bounded confidence penalty.
type Validator struct {
	client *http.Client
}

// New constructs a Validator with its own HTTP client.
func New() *Validator {
	return &Validator{client: &http.Client{}}
}

// Validate runs the domain-and-reachability check described in the
// evidence-validator contract. allow is the set of domains (already
// www.-stripped, lowercased) a citation must resolve within.
func (v *Validator) Validate(ctx context.Context, urls []string, allow map[string]struct{}) model.EvidenceValidation {
	if len(urls) == 0 {
		return model.EvidenceValidation{ConfidencePenalty: 0}
	}

	results := make([]result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = v.checkOne(gctx, u, allow)
			return nil
		})
	}
	_ = g.Wait() // checkOne never returns an error; failures are recorded per-URL

	var valid []string
	var invalid []model.InvalidCitation
	for _, r := range results {
		if r.valid {
			valid = append(valid, r.url)
		} else {
			invalid = append(invalid, model.InvalidCitation{URL: r.url, Reason: r.reason})
		}
	}

	penalty := 0.0
	if total := len(urls); total > 0 {
		penalty = float64(len(invalid)) / float64(total) * 0.3
		if penalty > 0.3 {
			penalty = 0.3
		}
	}

	return model.EvidenceValidation{Valid: valid, Invalid: invalid, ConfidencePenalty: penalty}
}

type result struct {
	url    string
	valid  bool
	reason string
}

func (v *Validator) checkOne(ctx context.Context, rawURL string, allow map[string]struct{}) result {
	host := scrapeutil.Domain(rawURL)
	if _, ok := allow[host]; !ok {
		return result{url: rawURL, valid: false, reason: "domain not allowed"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return result{url: rawURL, valid: false, reason: err.Error()}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return result{url: rawURL, valid: false, reason: err.Error()}
	}
	defer resp.Body.Close()

	if finalHost := scrapeutil.Domain(resp.Request.URL.String()); finalHost != "" {
		if _, ok := allow[finalHost]; !ok {
			return result{url: rawURL, valid: false, reason: "redirected off-domain"}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result{url: rawURL, valid: false, reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	return result{url: rawURL, valid: true}
}

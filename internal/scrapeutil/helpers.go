package scrapeutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Hash returns the hex-encoded sha256 digest of s, used to key cache
// entries and scrape results by their canonicalized URL.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Domain extracts the lowercased host from a URL, stripping a leading
// "www." label so that "https://www.example.com/x" and
// "https://example.com/y" are treated as the same domain.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return stripWWW(strings.ToLower(u.Hostname()))
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// Canonicalize validates that rawURL is an http(s) URL and strips its
// fragment. It is idempotent: Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", errInvalidURL(rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errInvalidURL(rawURL)
	}
	if u.Host == "" {
		return "", errInvalidURL(rawURL)
	}
	u.Fragment = ""
	return u.String(), nil
}

type canonicalizeError struct{ url string }

func (e canonicalizeError) Error() string { return "invalid url: " + e.url }

func errInvalidURL(u string) error { return canonicalizeError{url: u} }

// Tokens splits s on whitespace into a set of lowercased tokens, the input
// to Jaccard similarity.
func Tokens(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard computes the Jaccard similarity coefficient between two token
// sets: |A∩B| / |A∪B|, with the convention that two empty sets are
// maximally dissimilar (0), never divide-by-zero.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Sleep blocks for d or until ctx is cancelled, whichever comes first. It
// returns ctx.Err() on cancellation so callers can distinguish a completed
// sleep from an aborted one.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryableFunc is a unit of work that Retry may invoke more than once.
type RetryableFunc func(attempt int) (retry bool, err error)

// Retry calls fn up to maxAttempts times, sleeping backoff(attempt) between
// attempts. fn reports whether the failure is retryable; a non-retryable
// error or context cancellation stops the loop immediately. Retry returns
// the last error seen (nil on eventual success) and the number of attempts
// made.
func Retry(ctx context.Context, maxAttempts int, backoff func(attempt int) time.Duration, fn RetryableFunc) (attempts int, err error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		retryable, callErr := fn(attempt)
		if callErr == nil {
			return attempts, nil
		}
		err = callErr
		if !retryable || attempt == maxAttempts {
			return attempts, err
		}
		if sleepErr := Sleep(ctx, backoff(attempt)); sleepErr != nil {
			return attempts, sleepErr
		}
	}
	return attempts, err
}

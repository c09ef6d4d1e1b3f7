package scraper

import (
	"testing"

	"brandintel/internal/model"
)

func TestDedupeDropsNearDuplicates(t *testing.T) {
	pages := []model.Page{
		{URL: "https://example.com/", Body: "welcome to our company we build great products for everyone"},
		{URL: "https://example.com/about", Body: "welcome to our company we build great products for almost everyone"},
		{URL: "https://example.com/pricing", Body: "pricing plans start at ten dollars per month for small teams"},
	}

	got := dedupe(pages, 0.8)
	if len(got) != 2 {
		t.Fatalf("dedupe kept %d pages, want 2 (near-duplicate dropped)", len(got))
	}
	if got[0].URL != "https://example.com/" {
		t.Fatalf("dedupe should keep the first-seen page, got %q first", got[0].URL)
	}
}

func TestDedupeKeepsDistinctPages(t *testing.T) {
	pages := []model.Page{
		{URL: "https://example.com/", Body: "home page content about our mission and vision"},
		{URL: "https://example.com/careers", Body: "join our team open roles engineering sales support"},
	}

	got := dedupe(pages, 0.8)
	if len(got) != 2 {
		t.Fatalf("dedupe kept %d pages, want 2 (no overlap)", len(got))
	}
}

func TestDiscoverDeduplicatesCandidates(t *testing.T) {
	candidates := discover("https://example.com")
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			t.Fatalf("duplicate candidate %q", c)
		}
		seen[c] = struct{}{}
	}
	if len(candidates) < 15 {
		t.Fatalf("discover produced %d candidates, want a broad common-path set", len(candidates))
	}
}

func TestDiscoverStripsTrailingSlashOnRoot(t *testing.T) {
	candidates := discover("https://example.com/")
	for _, c := range candidates {
		if c == "https://example.com//" {
			t.Fatalf("discover produced a double-slash candidate: %q", c)
		}
	}
}

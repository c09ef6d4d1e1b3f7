package scraper

import (
	"brandintel/internal/model"
	"brandintel/internal/scrapeutil"
)

// dedupe greedily keeps the first page and discards each subsequent page
// whose Jaccard similarity to any already-kept page exceeds threshold.
func dedupe(pages []model.Page, threshold float64) []model.Page {
	kept := make([]model.Page, 0, len(pages))
	keptTokens := make([]map[string]struct{}, 0, len(pages))

	for _, p := range pages {
		tokens := scrapeutil.Tokens(p.Body)

		duplicate := false
		for _, kt := range keptTokens {
			if scrapeutil.Jaccard(tokens, kt) > threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, p)
		keptTokens = append(keptTokens, tokens)
	}

	return kept
}

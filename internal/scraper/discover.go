package scraper

import "strings"

// commonPaths is the fixed set of paths combined with the site root to
// build the candidate list. ~20 paths covering the pages a brand
// dossier typically draws evidence from.
var commonPaths = []string{
	"/",
	"/about",
	"/about-us",
	"/company",
	"/products",
	"/product",
	"/services",
	"/solutions",
	"/pricing",
	"/plans",
	"/team",
	"/careers",
	"/blog",
	"/news",
	"/press",
	"/contact",
	"/contact-us",
	"/faq",
	"/support",
	"/customers",
}

// discover combines the canonicalized root with commonPaths, deduplicating
// the result.
func discover(root string) []string {
	seen := make(map[string]struct{}, len(commonPaths))
	candidates := make([]string, 0, len(commonPaths))

	base := strings.TrimRight(root, "/")
	for _, p := range commonPaths {
		u := base + p
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		candidates = append(candidates, u)
	}
	return candidates
}

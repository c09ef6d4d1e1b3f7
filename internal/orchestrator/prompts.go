package orchestrator

import (
	"fmt"
	"strings"

	"brandintel/internal/model"
)

const brandAnalysisInstruction = `You are analyzing a brand's own website content. Given the captured
pages below, return a JSON object with exactly these keys: name, domain,
tagline, category, value_propositions (array of strings), target_audience,
positioning, key_features (array of strings), summary, evidence_refs
(array of URLs you drew facts from, must be URLs present in the pages
below), reported_confidence (0 to 1, how confident you are in this
analysis given the material available).`

const competitorsDiscoveryInstruction = `Given the brand analysis below, return a JSON object with a single key
"candidates": an array of up to 10 objects, each with keys name, domain,
confidence (0 to 1), and rationale. List plausible direct competitors.`

const competitorAnalysisInstruction = `You are analyzing a competitor's website content, structured the same way
as a brand analysis. Given the captured pages below for domain %s, return
a JSON object with exactly these keys: name, domain, tagline, category,
value_propositions (array of strings), target_audience, positioning,
key_features (array of strings), summary, evidence_refs (array of URLs
drawn from the pages below), reported_confidence (0 to 1), pricing_approach,
strengths (array of strings), weaknesses (array of strings), differentiation.`

const kernelAssemblyInstruction = `Given the brand analysis and the analyzed competitors below, synthesize a
competitive-intelligence kernel. Return a JSON object with exactly these
keys: keyword_map (object with brand_unique, shared, white_space arrays of
strings), gap_map (array of objects with area, brand_coverage,
competitor_coverage [one of low/medium/high], opportunity), insights
(object with strengths, opportunities, risks arrays of strings), and
recommendations (array of strings).`

func buildBrandPrompt(pages []model.Page) string {
	var b strings.Builder
	b.WriteString(brandAnalysisInstruction)
	b.WriteString("\n\n")
	writePages(&b, pages)
	return b.String()
}

func buildCompetitorsPrompt(brand model.BrandAnalysis) string {
	var b strings.Builder
	b.WriteString(competitorsDiscoveryInstruction)
	b.WriteString("\n\nBrand analysis:\n")
	b.WriteString(fmt.Sprintf("name: %s\ndomain: %s\ncategory: %s\npositioning: %s\nsummary: %s\n",
		brand.Name, brand.Domain, brand.Category, brand.Positioning, brand.Summary))
	return b.String()
}

func buildCompetitorAnalysisPrompt(domain string, pages []model.Page) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(competitorAnalysisInstruction, domain))
	b.WriteString("\n\n")
	writePages(&b, pages)
	return b.String()
}

func buildKernelPrompt(brand model.BrandAnalysis, analyzed []model.CompetitorAnalysis) string {
	var b strings.Builder
	b.WriteString(kernelAssemblyInstruction)
	b.WriteString("\n\nBrand:\n")
	b.WriteString(fmt.Sprintf("name: %s\npositioning: %s\nkey_features: %s\nsummary: %s\n",
		brand.Name, brand.Positioning, strings.Join(brand.KeyFeatures, ", "), brand.Summary))
	b.WriteString("\nCompetitors:\n")
	for _, c := range analyzed {
		b.WriteString(fmt.Sprintf("- %s (%s): positioning=%q strengths=%s weaknesses=%s differentiation=%q\n",
			c.Name, c.Domain, c.Positioning, strings.Join(c.Strengths, ", "), strings.Join(c.Weaknesses, ", "), c.Differentiation))
	}
	return b.String()
}

func writePages(b *strings.Builder, pages []model.Page) {
	for _, p := range pages {
		b.WriteString(fmt.Sprintf("URL: %s\nTITLE: %s\n%s\n\n", p.URL, p.Title, p.Body))
	}
}

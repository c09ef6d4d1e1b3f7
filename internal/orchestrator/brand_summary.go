package orchestrator

import (
	"context"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
	"brandintel/internal/scrapeutil"
)

// BrandSummaryResult is the response body for POST /v1/brand-summary.
type BrandSummaryResult struct {
	RunID string              `json:"run_id"`
	Brand model.BrandAnalysis `json:"brand"`
	Card  model.BrandCard     `json:"brand_card"`
	Meta  Meta                `json:"meta"`
}

// BrandSummary creates a new Run, scrapes brandURL, runs the brand LLM
// analysis, validates its citations, gates on adjusted confidence, and
// persists the result.
func (o *Orchestrator) BrandSummary(ctx context.Context, brandURL string) (*BrandSummaryResult, error) {
	start := time.Now()

	run, err := o.store.Create(ctx)
	if err != nil {
		return nil, err
	}

	result, err := o.scraper.Scrape(ctx, brandURL)
	if err != nil {
		return nil, err
	}
	if len(result.Pages) < minPagesRequired {
		return nil, apierr.New(apierr.CodeInsufficientData, "fewer than 3 pages survived scrape").
			WithDetails(map[string]any{"pages": len(result.Pages)})
	}

	raw, err := o.llm.Call(ctx, "brand-analysis", buildBrandPrompt(result.Pages))
	if err != nil {
		return nil, err
	}

	var brand model.BrandAnalysis
	if err := decodeInto(raw, &brand); err != nil {
		return nil, err
	}

	domain := scrapeutil.Domain(brandURL)
	brand.Evidence = o.validator.Validate(ctx, brand.EvidenceRefs, map[string]struct{}{domain: {}})

	confidence := brand.Confidence()
	if confidence < minConfidence {
		return nil, apierr.New(apierr.CodeLowConfidence, "adjusted confidence below threshold").
			WithDetails(map[string]any{"confidence": confidence, "invalid_citations": brand.Evidence.Invalid})
	}

	if err := o.store.SaveBrand(ctx, run.ID, brand); err != nil {
		return nil, err
	}

	return &BrandSummaryResult{
		RunID: run.ID,
		Brand: brand,
		Card:  projectBrandCard(brand, confidence),
		Meta:  newMeta(start),
	}, nil
}

// projectBrandCard builds the deterministic presentation structure from a
// BrandAnalysis: title, tagline, domain, category, confidence, and four
// fixed sections.
func projectBrandCard(brand model.BrandAnalysis, confidence float64) model.BrandCard {
	return model.BrandCard{
		Title:      brand.Name,
		Tagline:    brand.Tagline,
		Domain:     brand.Domain,
		Category:   brand.Category,
		Confidence: confidence,
		Sections: []model.Section{
			{Heading: "Value Propositions", Items: brand.ValuePropositions},
			{Heading: "Key Features", Items: brand.KeyFeatures},
			{Heading: "Target Audience", Items: []string{brand.TargetAudience}},
			{Heading: "Positioning & Summary", Items: []string{brand.Positioning, brand.Summary}},
		},
	}
}

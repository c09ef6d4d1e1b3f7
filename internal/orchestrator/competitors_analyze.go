package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
)

// CompetitorsAnalyzeResult is the response body for POST /v1/competitors/analyze.
type CompetitorsAnalyzeResult struct {
	RunID     string                       `json:"run_id"`
	Analyzed  []model.CompetitorAnalysis `json:"analyzed"`
	Meta      Meta                         `json:"meta"`
}

// CompetitorsAnalyze loads run_id, requires a non-empty competitorsTen
// slot, and scrapes+analyzes each requested domain in parallel. Unlike
// every other fan-out in this pipeline, a single competitor's failure
// fails the whole phase — the caller is expected to resubmit a smaller
// domain set rather than silently receive a partial result.
func (o *Orchestrator) CompetitorsAnalyze(ctx context.Context, runID string, domains []string) (*CompetitorsAnalyzeResult, error) {
	start := time.Now()

	run, err := o.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(run.CompetitorsTen) == 0 {
		return nil, apierr.New(apierr.CodeUpstreamMissing, "competitor discovery has not been produced for this run")
	}

	results := make([]model.CompetitorAnalysis, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, domain := range domains {
		i, domain := i, domain
		g.Go(func() error {
			analysis, err := o.analyzeOne(gctx, domain)
			if err != nil {
				return err
			}
			results[i] = *analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := o.store.SaveAnalyzed(ctx, run.ID, results); err != nil {
		return nil, err
	}

	return &CompetitorsAnalyzeResult{RunID: run.ID, Analyzed: results, Meta: newMeta(start)}, nil
}

func (o *Orchestrator) analyzeOne(ctx context.Context, domain string) (*model.CompetitorAnalysis, error) {
	result, err := o.scraper.Scrape(ctx, "https://"+domain)
	if err != nil {
		return nil, err
	}
	if len(result.Pages) < minPagesRequired {
		return nil, apierr.New(apierr.CodeInsufficientData, "fewer than 3 pages survived scrape").
			WithDetails(map[string]any{"domain": domain, "pages": len(result.Pages)})
	}

	raw, err := o.llm.Call(ctx, "competitor-analysis", buildCompetitorAnalysisPrompt(domain, result.Pages))
	if err != nil {
		return nil, err
	}

	var analysis model.CompetitorAnalysis
	if err := decodeInto(raw, &analysis); err != nil {
		return nil, err
	}

	analysis.Evidence = o.validator.Validate(ctx, analysis.EvidenceRefs, map[string]struct{}{domain: {}})
	return &analysis, nil
}

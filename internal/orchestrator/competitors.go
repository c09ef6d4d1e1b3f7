package orchestrator

import (
	"context"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
)

// CompetitorsResult is the response body for POST /v1/competitors.
type CompetitorsResult struct {
	RunID       string                       `json:"run_id"`
	Competitors []model.CompetitorCandidate `json:"competitors"`
	Meta        Meta                         `json:"meta"`
}

// competitorsDiscoveryResponse is the shape the competitors-discovery LLM
// call is asked to return.
type competitorsDiscoveryResponse struct {
	Candidates []model.CompetitorCandidate `json:"candidates"`
}

// Competitors loads run_id, requires a non-empty brand slot, discovers
// competitor candidates via the LLM, filters by confidence, and persists
// the survivors. brand_domain is accepted for input parity but otherwise
// ignored — the run's own saved brand domain is authoritative.
func (o *Orchestrator) Competitors(ctx context.Context, runID string) (*CompetitorsResult, error) {
	start := time.Now()

	run, err := o.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Brand == nil {
		return nil, apierr.New(apierr.CodeUpstreamMissing, "brand summary has not been produced for this run")
	}

	raw, err := o.llm.Call(ctx, "competitors-discovery", buildCompetitorsPrompt(*run.Brand))
	if err != nil {
		return nil, err
	}

	var decoded competitorsDiscoveryResponse
	if err := decodeInto(raw, &decoded); err != nil {
		return nil, err
	}

	filtered := make([]model.CompetitorCandidate, 0, len(decoded.Candidates))
	for _, c := range decoded.Candidates {
		if c.Confidence >= minCandidateConfidence {
			filtered = append(filtered, c)
		}
	}

	if err := o.store.SaveCompetitors(ctx, run.ID, filtered); err != nil {
		return nil, err
	}

	return &CompetitorsResult{RunID: run.ID, Competitors: filtered, Meta: newMeta(start)}, nil
}

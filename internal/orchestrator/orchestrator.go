// Package orchestrator implements the four phase handlers that drive a
// Run from a bare brand URL through to a synthesized competitive kernel,
// wiring the Scraper, LLMGateway, EvidenceValidator and RunStore together
// and enforcing the phase-dependency gate table.
package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
	"brandintel/internal/runstore"
)

// scraperClient is the Scraper's interface as seen by the orchestrator,
// narrowed so a fake can stand in for tests.
type scraperClient interface {
	Scrape(ctx context.Context, brandURL string) (*model.ScrapeResult, error)
}

// llmClient is the LLMGateway's interface as seen by the orchestrator.
type llmClient interface {
	Call(ctx context.Context, endpoint, prompt string) (map[string]any, error)
}

// evidenceValidator is the EvidenceValidator's interface as seen by the
// orchestrator.
type evidenceValidator interface {
	Validate(ctx context.Context, urls []string, allow map[string]struct{}) model.EvidenceValidation
}

// runStore is the RunStore's interface as seen by the orchestrator.
type runStore interface {
	Create(ctx context.Context) (*model.Run, error)
	Get(ctx context.Context, runID string) (*model.Run, error)
	SaveBrand(ctx context.Context, runID string, brand model.BrandAnalysis) error
	SaveCompetitors(ctx context.Context, runID string, competitors []model.CompetitorCandidate) error
	SaveAnalyzed(ctx context.Context, runID string, analyzed []model.CompetitorAnalysis) error
	SaveKernel(ctx context.Context, runID string, kernel model.Kernel) error
}

// minConfidence is the gate applied to a BrandSummary's adjusted
// confidence.
const minConfidence = 0.6

// minCandidateConfidence is the floor a discovered competitor candidate
// must clear to survive the Competitors phase.
const minCandidateConfidence = 0.6

// minPagesRequired is the floor on surviving scraped pages below which a
// scrape is InsufficientData.
const minPagesRequired = 3

// Orchestrator wires the pipeline's four phases.
type Orchestrator struct {
	scraper   scraperClient
	llm       llmClient
	validator evidenceValidator
	store     runStore
}

// New constructs an Orchestrator over already-configured components.
func New(s scraperClient, llm llmClient, v evidenceValidator, store runStore) *Orchestrator {
	return &Orchestrator{scraper: s, llm: llm, validator: v, store: store}
}

// Meta is the trailing metadata block every phase response carries.
type Meta struct {
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

func newMeta(start time.Time) Meta {
	return Meta{DurationMs: time.Since(start).Milliseconds(), Timestamp: time.Now().UTC()}
}

// loadRun fetches run_id and translates a missing/expired run into the
// UPSTREAM_ARTIFACT_MISSING error code.
func (o *Orchestrator) loadRun(ctx context.Context, runID string) (*model.Run, error) {
	run, err := o.store.Get(ctx, runID)
	if err != nil {
		if err == runstore.ErrNotFound {
			return nil, apierr.New(apierr.CodeUpstreamMissing, "run not found or expired").WithDetails(map[string]any{"run_id": runID})
		}
		return nil, err
	}
	return run, nil
}

// decodeInto round-trips an LLM-returned JSON object into a typed struct.
func decodeInto(raw map[string]any, target any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return apierr.Wrap(apierr.CodeOpenAIError, "re-encode llm response", err)
	}
	if err := json.Unmarshal(buf, target); err != nil {
		return apierr.Wrap(apierr.CodeOpenAIError, "llm response did not match expected shape", err)
	}
	return nil
}

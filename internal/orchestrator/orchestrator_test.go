package orchestrator

import (
	"context"
	"testing"

	"brandintel/internal/model"
)

type fakeScraper struct {
	result *model.ScrapeResult
	err    error
}

func (f *fakeScraper) Scrape(ctx context.Context, brandURL string) (*model.ScrapeResult, error) {
	return f.result, f.err
}

type fakeLLM struct {
	responses map[string]map[string]any
	err       error
}

func (f *fakeLLM) Call(ctx context.Context, endpoint, prompt string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[endpoint], nil
}

type fakeValidator struct {
	result model.EvidenceValidation
}

func (f *fakeValidator) Validate(ctx context.Context, urls []string, allow map[string]struct{}) model.EvidenceValidation {
	return f.result
}

type fakeStore struct {
	run            *model.Run
	createErr      error
	getErr         error
	savedBrand     *model.BrandAnalysis
	savedCompetitors []model.CompetitorCandidate
	savedAnalyzed  []model.CompetitorAnalysis
	savedKernel    *model.Kernel
}

func (f *fakeStore) Create(ctx context.Context) (*model.Run, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.run, nil
}

func (f *fakeStore) Get(ctx context.Context, runID string) (*model.Run, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.run, nil
}

func (f *fakeStore) SaveBrand(ctx context.Context, runID string, brand model.BrandAnalysis) error {
	f.savedBrand = &brand
	return nil
}

func (f *fakeStore) SaveCompetitors(ctx context.Context, runID string, competitors []model.CompetitorCandidate) error {
	f.savedCompetitors = competitors
	return nil
}

func (f *fakeStore) SaveAnalyzed(ctx context.Context, runID string, analyzed []model.CompetitorAnalysis) error {
	f.savedAnalyzed = analyzed
	return nil
}

func (f *fakeStore) SaveKernel(ctx context.Context, runID string, kernel model.Kernel) error {
	f.savedKernel = &kernel
	return nil
}

func pages(n int) []model.Page {
	out := make([]model.Page, n)
	for i := range out {
		out[i] = model.Page{URL: "https://example.com/p", Body: "content"}
	}
	return out
}

func TestBrandSummaryFailsInsufficientDataOnTwoPages(t *testing.T) {
	o := New(
		&fakeScraper{result: &model.ScrapeResult{Pages: pages(2)}},
		&fakeLLM{},
		&fakeValidator{},
		&fakeStore{run: &model.Run{ID: "run_abc"}},
	)

	_, err := o.BrandSummary(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("expected InsufficientData for 2 surviving pages")
	}
}

func TestBrandSummarySucceedsOnThreePages(t *testing.T) {
	store := &fakeStore{run: &model.Run{ID: "run_abc"}}
	o := New(
		&fakeScraper{result: &model.ScrapeResult{Pages: pages(3)}},
		&fakeLLM{responses: map[string]map[string]any{
			"brand-analysis": {"name": "Acme", "domain": "example.com", "reported_confidence": 0.9},
		}},
		&fakeValidator{result: model.EvidenceValidation{ConfidencePenalty: 0}},
		store,
	)

	got, err := o.BrandSummary(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("BrandSummary: %v", err)
	}
	if got.Brand.Name != "Acme" {
		t.Fatalf("brand name = %q, want Acme", got.Brand.Name)
	}
	if store.savedBrand == nil {
		t.Fatal("expected SaveBrand to be called")
	}
}

func TestBrandSummaryGatesOnLowConfidence(t *testing.T) {
	o := New(
		&fakeScraper{result: &model.ScrapeResult{Pages: pages(3)}},
		&fakeLLM{responses: map[string]map[string]any{
			"brand-analysis": {"name": "Acme", "reported_confidence": 0.5},
		}},
		&fakeValidator{result: model.EvidenceValidation{ConfidencePenalty: 0}},
		&fakeStore{run: &model.Run{ID: "run_abc"}},
	)

	_, err := o.BrandSummary(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("expected LowConfidence error for confidence 0.5")
	}
}

func TestCompetitorsRequiresBrandSlot(t *testing.T) {
	o := New(&fakeScraper{}, &fakeLLM{}, &fakeValidator{}, &fakeStore{run: &model.Run{ID: "run_abc"}})

	_, err := o.Competitors(context.Background(), "run_abc")
	if err == nil {
		t.Fatal("expected PrereqMissing error when brand slot is empty")
	}
}

func TestCompetitorsFiltersLowConfidenceCandidates(t *testing.T) {
	o := New(
		&fakeScraper{},
		&fakeLLM{responses: map[string]map[string]any{
			"competitors-discovery": {"candidates": []map[string]any{
				{"name": "A", "domain": "a.com", "confidence": 0.9},
				{"name": "B", "domain": "b.com", "confidence": 0.2},
			}},
		}},
		&fakeValidator{},
		&fakeStore{run: &model.Run{ID: "run_abc", Brand: &model.BrandAnalysis{Name: "Acme"}}},
	)

	got, err := o.Competitors(context.Background(), "run_abc")
	if err != nil {
		t.Fatalf("Competitors: %v", err)
	}
	if len(got.Competitors) != 1 || got.Competitors[0].Domain != "a.com" {
		t.Fatalf("expected only the 0.9-confidence candidate to survive, got %+v", got.Competitors)
	}
}

func TestKernelRequiresBothUpstreamSlots(t *testing.T) {
	o := New(&fakeScraper{}, &fakeLLM{}, &fakeValidator{}, &fakeStore{run: &model.Run{ID: "run_abc", Brand: &model.BrandAnalysis{}}})

	_, err := o.Kernel(context.Background(), "run_abc")
	if err == nil {
		t.Fatal("expected PrereqMissing error when competitorsAnalyzed slot is empty")
	}
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"brandintel/internal/apierr"
	"brandintel/internal/config"
	"brandintel/internal/orchestrator"
)

type fakeOrchestrator struct {
	brandResult *orchestrator.BrandSummaryResult
	brandErr    error
	kernelErr   error
}

func (f *fakeOrchestrator) BrandSummary(ctx context.Context, brandURL string) (*orchestrator.BrandSummaryResult, error) {
	return f.brandResult, f.brandErr
}

func (f *fakeOrchestrator) Competitors(ctx context.Context, runID string) (*orchestrator.CompetitorsResult, error) {
	return &orchestrator.CompetitorsResult{RunID: runID}, nil
}

func (f *fakeOrchestrator) CompetitorsAnalyze(ctx context.Context, runID string, domains []string) (*orchestrator.CompetitorsAnalyzeResult, error) {
	return &orchestrator.CompetitorsAnalyzeResult{RunID: runID}, nil
}

func (f *fakeOrchestrator) Kernel(ctx context.Context, runID string) (*orchestrator.KernelResult, error) {
	if f.kernelErr != nil {
		return nil, f.kernelErr
	}
	return &orchestrator.KernelResult{RunID: runID}, nil
}

func newTestServer(orch phaseOrchestrator) *Server {
	cfg := &config.Config{}
	cfg.Auth.APIKey = "test-secret"
	cfg.RateLimit.MaxPerMinute = 1000
	return NewServer(cfg, orch, nil, nil, nil, nil)
}

func doRequest(t *testing.T, s *Server, method, path, apiKey string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestBrandSummaryRejectsInvalidURL(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})
	resp := doRequest(t, s, http.MethodPost, "/v1/brand-summary", "test-secret", BrandSummaryRequest{BrandURL: "not-a-url"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBrandSummaryRequiresAPIKey(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})
	resp := doRequest(t, s, http.MethodPost, "/v1/brand-summary", "", BrandSummaryRequest{BrandURL: "https://example.com"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBrandSummarySucceeds(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{brandResult: &orchestrator.BrandSummaryResult{RunID: "run_abc"}})
	resp := doRequest(t, s, http.MethodPost, "/v1/brand-summary", "test-secret", BrandSummaryRequest{BrandURL: "https://example.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestKernelTranslatesUpstreamMissing(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{kernelErr: apierr.New(apierr.CodeUpstreamMissing, "run not found or expired")})
	resp := doRequest(t, s, http.MethodPost, "/v1/kernel", "test-secret", KernelRequest{RunID: "run_fake-id"})
	if resp.StatusCode != http.StatusFailedDependency {
		t.Fatalf("status = %d, want 424", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != string(apierr.CodeUpstreamMissing) {
		t.Fatalf("error code = %q, want %q", body.Error, apierr.CodeUpstreamMissing)
	}
}

func TestCompetitorsAnalyzeRejectsOversizedDomainList(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})
	domains := make([]string, 11)
	for i := range domains {
		domains[i] = "example.com"
	}
	resp := doRequest(t, s, http.MethodPost, "/v1/competitors/analyze", "test-secret", CompetitorsAnalyzeRequest{RunID: "run_abc", Domains: domains})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthLiveAlwaysOK(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})
	resp := doRequest(t, s, http.MethodGet, "/health/live", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

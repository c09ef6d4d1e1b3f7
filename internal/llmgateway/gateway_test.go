package llmgateway

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noBackoff(int) time.Duration { return 0 }

type fakeProvider struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	tokens  int64
	err     error
}

func (f *fakeProvider) name() string  { return "fake" }
func (f *fakeProvider) model() string { return "fake-model" }

func (f *fakeProvider) complete(ctx context.Context, systemPrompt, userPrompt string) (string, int64, error) {
	r := f.responses[f.calls]
	f.calls++
	return r.content, r.tokens, r.err
}

func TestCallSucceedsOnFirstAttempt(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{content: `{"ok": true}`, tokens: 10},
	}}
	g := &Gateway{p: p, backoff: noBackoff}

	got, err := g.Call(context.Background(), "brand-summary", "prompt")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got["ok"] != true {
		t.Fatalf("got %+v, want ok=true", got)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}
}

func TestCallRetriesOnRateLimitThenSucceeds(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &providerError{class: classRate, err: errors.New("429")}},
		{content: `{"ok": true}`, tokens: 5},
	}}
	g := &Gateway{p: p, backoff: noBackoff}

	got, err := g.Call(context.Background(), "kernel", "prompt")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got["ok"] != true {
		t.Fatalf("got %+v, want ok=true", got)
	}
	if p.calls != 2 {
		t.Fatalf("calls = %d, want 2 (one retry)", p.calls)
	}
}

func TestCallNeverRetriesAuthFailure(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &providerError{class: classAuth, err: errors.New("401")}},
		{content: `{"ok": true}`},
	}}
	g := &Gateway{p: p, backoff: noBackoff}

	_, err := g.Call(context.Background(), "brand-summary", "prompt")
	if err == nil {
		t.Fatal("expected error for auth failure")
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on auth failure)", p.calls)
	}
}

func TestCallStopsAtThreeAttempts(t *testing.T) {
	rateLimited := fakeResponse{err: &providerError{class: classRate, err: errors.New("429")}}
	p := &fakeProvider{responses: []fakeResponse{rateLimited, rateLimited, rateLimited}}
	g := &Gateway{p: p, backoff: noBackoff}

	_, err := g.Call(context.Background(), "brand-summary", "prompt")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3 (cap)", p.calls)
	}
}

func TestDecodeJSONObjectExtractsEmbeddedBlock(t *testing.T) {
	got, err := decodeJSONObject("here is your answer: {\"a\": 1} thanks")
	if err != nil {
		t.Fatalf("decodeJSONObject: %v", err)
	}
	if got["a"] != float64(1) {
		t.Fatalf("got %+v, want a=1", got)
	}
}

func TestDecodeJSONObjectRejectsNonJSON(t *testing.T) {
	if _, err := decodeJSONObject("not json at all"); err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}

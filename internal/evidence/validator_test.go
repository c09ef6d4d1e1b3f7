package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestValidateEmptyURLsZeroPenalty(t *testing.T) {
	v := New()
	got := v.Validate(context.Background(), nil, map[string]struct{}{})
	if got.ConfidencePenalty != 0 {
		t.Fatalf("penalty = %f, want 0 for empty input", got.ConfidencePenalty)
	}
}

func TestValidatePenaltyBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	srvURL, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	allow := map[string]struct{}{srvURL.Hostname(): {}}

	v := New()
	got := v.Validate(context.Background(), []string{srv.URL, srv.URL, srv.URL}, allow)

	if got.ConfidencePenalty < 0 || got.ConfidencePenalty > 0.3 {
		t.Fatalf("penalty %f out of bounds [0, 0.3]", got.ConfidencePenalty)
	}
	if len(got.Invalid) != 3 {
		t.Fatalf("expected all 3 urls invalid (404), got %d", len(got.Invalid))
	}
	if got.ConfidencePenalty != 0.3 {
		t.Fatalf("all-invalid set should hit the 0.3 cap, got %f", got.ConfidencePenalty)
	}
}

func TestValidateDomainNotAllowed(t *testing.T) {
	v := New()
	got := v.Validate(context.Background(), []string{"https://evil.example.com/x"}, map[string]struct{}{"example.com": {}})
	if len(got.Invalid) != 1 || got.Invalid[0].Reason != "domain not allowed" {
		t.Fatalf("expected domain-not-allowed rejection, got %+v", got.Invalid)
	}
}

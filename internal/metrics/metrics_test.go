package metrics

import "testing"

func TestExportIncludesRecordedRequest(t *testing.T) {
	RecordRequest("POST", "/v1/brand-summary", 200, 42)
	out := Export()
	if !contains(out, `brandintel_http_requests_total{method="POST",path="/v1/brand-summary",status="200"}`) {
		t.Fatalf("expected request counter in export, got:\n%s", out)
	}
}

func TestExportIncludesPoolGauges(t *testing.T) {
	SetPoolStats(3, 1, 2)
	out := Export()
	if !contains(out, "brandintel_browser_pool_total 3") {
		t.Fatalf("expected pool total gauge, got:\n%s", out)
	}
	if !contains(out, "brandintel_browser_pool_in_use 1") {
		t.Fatalf("expected pool in_use gauge, got:\n%s", out)
	}
}

func TestExportIncludesLLMCounters(t *testing.T) {
	RecordLLMCall("gpt-4o", "brand-analysis", "success", 500)
	out := Export()
	if !contains(out, `openai_api_calls_total{model="gpt-4o",endpoint="brand-analysis",status="success"}`) {
		t.Fatalf("expected llm call counter in export, got:\n%s", out)
	}
	if !contains(out, `openai_tokens_used_total{model="gpt-4o",endpoint="brand-analysis"}`) {
		t.Fatalf("expected llm token counter in export, got:\n%s", out)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// Package metrics implements a small in-memory Prometheus-text exporter.
// It is intentionally hand-rolled rather than built on a metrics client
// library: the exposition format itself is an external collaborator's
// concern, not part of the orchestration core this module implements.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	mu sync.RWMutex

	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	llmTokensTotal = make(map[llmKey]int64)
	llmCallsTotal  = make(map[llmCallKey]int64)

	cacheHits   = make(map[string]int64)
	cacheMisses = make(map[string]int64)

	scrapeDurationMsSum   = make(map[string]int64)
	scrapeDurationMsCount = make(map[string]int64)

	poolTotal     int64
	poolInUse     int64
	poolAvailable int64

	runsActive int64
	runsReaped int64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type llmKey struct {
	Model    string
	Endpoint string
}

type llmCallKey struct {
	Model    string
	Endpoint string
	Status   string
}

// RecordRequest increments the request counter and records latency for one
// HTTP request.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	requestsTotal[reqKey{Method: method, Path: path, Status: status}]++
	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordLLMCall records one outbound provider call (including retries,
// which count as separate calls) and the tokens it consumed.
func RecordLLMCall(model, endpoint, status string, tokens int64) {
	mu.Lock()
	defer mu.Unlock()

	llmCallsTotal[llmCallKey{Model: model, Endpoint: endpoint, Status: status}]++
	if tokens > 0 {
		llmTokensTotal[llmKey{Model: model, Endpoint: endpoint}] += tokens
	}
}

// RecordCacheHit/RecordCacheMiss record a cache lookup outcome for the
// given tier ("fast" or "durable").
func RecordCacheHit(tier string) {
	mu.Lock()
	defer mu.Unlock()
	cacheHits[tier]++
}

func RecordCacheMiss(tier string) {
	mu.Lock()
	defer mu.Unlock()
	cacheMisses[tier]++
}

// RecordScrapeDuration records the wall-clock duration of a full scrape
// pipeline run for a domain.
func RecordScrapeDuration(domain string, durationMs int64) {
	mu.Lock()
	defer mu.Unlock()
	scrapeDurationMsSum[domain] += durationMs
	scrapeDurationMsCount[domain]++
}

// SetPoolStats publishes the BrowserPool's current gauge values. Called
// after every acquire/release.
func SetPoolStats(total, inUse, available int) {
	mu.Lock()
	defer mu.Unlock()
	poolTotal = int64(total)
	poolInUse = int64(inUse)
	poolAvailable = int64(available)
}

// SetRunStats publishes RunStore gauges: active replaces the current
// active-run gauge and reaped is added to the reaped-runs counter. No code
// in this module calls it, so the exported run metrics stay at zero.
func SetRunStats(active, reaped int64) {
	mu.Lock()
	defer mu.Unlock()
	runsActive = active
	runsReaped += reaped
}

// Export renders all recorded metrics as Prometheus text format.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP brandintel_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE brandintel_http_requests_total counter\n")
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})
	for _, k := range reqKeys {
		fmt.Fprintf(&b, "brandintel_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, requestsTotal[k])
	}

	b.WriteString("# HELP brandintel_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE brandintel_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP brandintel_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE brandintel_http_request_duration_ms_count counter\n")
	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})
	for _, k := range latKeys {
		fmt.Fprintf(&b, "brandintel_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n", k.Method, k.Path, latencyMsSum[k])
		fmt.Fprintf(&b, "brandintel_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n", k.Method, k.Path, latencyMsCount[k])
	}

	b.WriteString("# HELP openai_tokens_used_total Total LLM tokens consumed\n")
	b.WriteString("# TYPE openai_tokens_used_total counter\n")
	var llmKeys []llmKey
	for k := range llmTokensTotal {
		llmKeys = append(llmKeys, k)
	}
	sort.Slice(llmKeys, func(i, j int) bool {
		if llmKeys[i].Model != llmKeys[j].Model {
			return llmKeys[i].Model < llmKeys[j].Model
		}
		return llmKeys[i].Endpoint < llmKeys[j].Endpoint
	})
	for _, k := range llmKeys {
		fmt.Fprintf(&b, "openai_tokens_used_total{model=\"%s\",endpoint=\"%s\"} %d\n", k.Model, k.Endpoint, llmTokensTotal[k])
	}

	b.WriteString("# HELP openai_api_calls_total Total LLM provider calls, including retries\n")
	b.WriteString("# TYPE openai_api_calls_total counter\n")
	var llmCallKeys []llmCallKey
	for k := range llmCallsTotal {
		llmCallKeys = append(llmCallKeys, k)
	}
	sort.Slice(llmCallKeys, func(i, j int) bool {
		if llmCallKeys[i].Model != llmCallKeys[j].Model {
			return llmCallKeys[i].Model < llmCallKeys[j].Model
		}
		if llmCallKeys[i].Endpoint != llmCallKeys[j].Endpoint {
			return llmCallKeys[i].Endpoint < llmCallKeys[j].Endpoint
		}
		return llmCallKeys[i].Status < llmCallKeys[j].Status
	})
	for _, k := range llmCallKeys {
		fmt.Fprintf(&b, "openai_api_calls_total{model=\"%s\",endpoint=\"%s\",status=\"%s\"} %d\n", k.Model, k.Endpoint, k.Status, llmCallsTotal[k])
	}

	b.WriteString("# HELP brandintel_cache_hits_total Cache hits by tier\n")
	b.WriteString("# TYPE brandintel_cache_hits_total counter\n")
	for _, tier := range sortedKeys(cacheHits) {
		fmt.Fprintf(&b, "brandintel_cache_hits_total{tier=\"%s\"} %d\n", tier, cacheHits[tier])
	}

	b.WriteString("# HELP brandintel_cache_misses_total Cache misses by tier\n")
	b.WriteString("# TYPE brandintel_cache_misses_total counter\n")
	for _, tier := range sortedKeys(cacheMisses) {
		fmt.Fprintf(&b, "brandintel_cache_misses_total{tier=\"%s\"} %d\n", tier, cacheMisses[tier])
	}

	b.WriteString("# HELP scraping_duration_ms_sum Total scrape pipeline duration in milliseconds, by domain\n")
	b.WriteString("# TYPE scraping_duration_ms_sum counter\n")
	for _, domain := range sortedKeys(scrapeDurationMsSum) {
		fmt.Fprintf(&b, "scraping_duration_ms_sum{domain=\"%s\"} %d\n", domain, scrapeDurationMsSum[domain])
		fmt.Fprintf(&b, "scraping_duration_ms_count{domain=\"%s\"} %d\n", domain, scrapeDurationMsCount[domain])
	}

	b.WriteString("# HELP brandintel_browser_pool_total Configured BrowserPool size\n")
	b.WriteString("# TYPE brandintel_browser_pool_total gauge\n")
	fmt.Fprintf(&b, "brandintel_browser_pool_total %d\n", poolTotal)
	b.WriteString("# HELP brandintel_browser_pool_in_use Leased BrowserPool workers\n")
	b.WriteString("# TYPE brandintel_browser_pool_in_use gauge\n")
	fmt.Fprintf(&b, "brandintel_browser_pool_in_use %d\n", poolInUse)
	b.WriteString("# HELP brandintel_browser_pool_available Free BrowserPool workers\n")
	b.WriteString("# TYPE brandintel_browser_pool_available gauge\n")
	fmt.Fprintf(&b, "brandintel_browser_pool_available %d\n", poolAvailable)

	b.WriteString("# HELP brandintel_runs_active Active, unexpired runs\n")
	b.WriteString("# TYPE brandintel_runs_active gauge\n")
	fmt.Fprintf(&b, "brandintel_runs_active %d\n", runsActive)
	b.WriteString("# HELP brandintel_runs_reaped_total Runs deleted by the reaper\n")
	b.WriteString("# TYPE brandintel_runs_reaped_total counter\n")
	fmt.Fprintf(&b, "brandintel_runs_reaped_total %d\n", runsReaped)

	return b.String()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

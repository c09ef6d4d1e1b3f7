// Package llmgateway calls out to the configured LLM provider (OpenAI,
// Anthropic or Google) and enforces the fixed-schedule retry contract that
// every phase orchestrator relies on: up to three attempts, fixed 2s/4s
// backoff, no retry on a 4xx response except 429, never retry an auth
// failure.
package llmgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/config"
	"brandintel/internal/metrics"
	"brandintel/internal/scrapeutil"
)

// provider is the narrow interface each concrete client (OpenAI, Anthropic,
// Google) implements. prompt is sent as the sole user message alongside a
// fixed system instruction to respond with JSON only.
type provider interface {
	name() string
	model() string
	complete(ctx context.Context, systemPrompt, userPrompt string) (content string, tokensUsed int64, err error)
}

// classified is the taxonomy a provider error is sorted into before it is
// translated to an apierr.Code.
type classified int

const (
	classOther classified = iota
	classTimeout
	classAuth
	classRate
	classProtocol
)

// providerError lets a concrete client report which bucket of the retry
// contract a failure belongs to without the gateway having to sniff HTTP
// status codes or provider-specific error bodies itself.
type providerError struct {
	class classified
	err   error
}

func (e *providerError) Error() string { return e.err.Error() }
func (e *providerError) Unwrap() error { return e.err }

// classify buckets a provider HTTP failure by status code, or by timeout
// when status is 0 (transport-level failure, e.g. a dialed-out deadline).
func classify(status int, err error) *providerError {
	switch {
	case status == 0 && isTimeout(err):
		return &providerError{class: classTimeout, err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &providerError{class: classAuth, err: err}
	case status == http.StatusTooManyRequests:
		return &providerError{class: classRate, err: err}
	case status >= 400 && status < 500:
		return &providerError{class: classProtocol, err: err}
	default:
		return &providerError{class: classOther, err: err}
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok {
		return te.Timeout()
	}
	return strings.Contains(err.Error(), "context deadline exceeded")
}

// Gateway wraps a single configured provider with retry, metrics and error
// taxonomy translation shared by every phase orchestrator.
type Gateway struct {
	p       provider
	backoff func(attempt int) time.Duration
}

// New constructs a Gateway for cfg.DefaultProvider (or providerOverride,
// when non-empty).
func New(cfg config.LLMConfig, providerOverride string) (*Gateway, error) {
	name := cfg.DefaultProvider
	if providerOverride != "" {
		name = providerOverride
	}

	switch name {
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, apierr.New(apierr.CodeInternal, "anthropic api key not configured")
		}
		return &Gateway{p: newAnthropicClient(cfg.Anthropic), backoff: backoffSchedule}, nil
	case "google":
		if cfg.Google.APIKey == "" {
			return nil, apierr.New(apierr.CodeInternal, "google api key not configured")
		}
		client, err := newGoogleClient(cfg.Google)
		if err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "construct google llm client", err)
		}
		return &Gateway{p: client, backoff: backoffSchedule}, nil
	default:
		if cfg.OpenAI.APIKey == "" {
			return nil, apierr.New(apierr.CodeInternal, "openai api key not configured")
		}
		return &Gateway{p: newOpenAIClient(cfg.OpenAI), backoff: backoffSchedule}, nil
	}
}

const systemPrompt = "respond with valid JSON only"

// backoffSchedule is the exact fixed 2s/4s doubling schedule the orchestrator
// contracts assume: the wait happens before attempt 2 and attempt 3.
func backoffSchedule(attempt int) time.Duration {
	if attempt <= 1 {
		return 2 * time.Second
	}
	return 4 * time.Second
}

// Call sends prompt to the configured provider, retrying on transient
// failures per the fixed schedule, and decodes the returned JSON object
// into a map. endpoint names the calling phase for metrics labeling
// (e.g. "brand-analysis", "kernel-assembly").
func (g *Gateway) Call(ctx context.Context, endpoint, prompt string) (map[string]any, error) {
	var (
		lastErr error
		content string
	)

	backoff := g.backoff
	if backoff == nil {
		backoff = backoffSchedule
	}
	_, retryErr := scrapeutil.Retry(ctx, 3, backoff, func(attempt int) (bool, error) {
		c, tokens, err := g.p.complete(ctx, systemPrompt, prompt)
		if err != nil {
			lastErr = err
			pe, ok := err.(*providerError)
			if !ok {
				return false, err
			}
			metrics.RecordLLMCall(g.p.model(), endpoint, statusLabel(pe.class), 0)
			return pe.class != classAuth && pe.class != classProtocol, err
		}
		metrics.RecordLLMCall(g.p.model(), endpoint, "ok", tokens)
		content = c
		lastErr = nil
		return false, nil
	})

	if retryErr != nil {
		return nil, translate(lastErr, retryErr)
	}

	return decodeJSONObject(content)
}

func decodeJSONObject(content string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, apierr.New(apierr.CodeOpenAIError, "llm response was not valid JSON")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, apierr.Wrap(apierr.CodeOpenAIError, "llm response was not valid JSON", err)
	}
	return out, nil
}

func statusLabel(c classified) string {
	switch c {
	case classTimeout:
		return "timeout"
	case classAuth:
		return "auth_error"
	case classRate:
		return "rate_limited"
	case classProtocol:
		return "protocol_error"
	default:
		return "error"
	}
}

// translate maps the retry loop's terminal failure to the error taxonomy
// the HTTP layer expects. retryErr is scrapeutil.Retry's own wrapped error
// and is used only when cause carries no classification of its own.
func translate(cause error, retryErr error) error {
	pe, ok := cause.(*providerError)
	if !ok {
		return apierr.Wrap(apierr.CodeOpenAIError, "llm call failed", retryErr)
	}
	switch pe.class {
	case classTimeout:
		return apierr.Wrap(apierr.CodeOpenAITimeout, "llm call timed out", pe)
	case classAuth:
		return apierr.Wrap(apierr.CodeOpenAIError, "llm authentication failed", pe)
	case classRate:
		return apierr.Wrap(apierr.CodeOpenAIError, "llm rate limited after 3 attempts", pe)
	default:
		return apierr.Wrap(apierr.CodeOpenAIError, "llm call failed", pe)
	}
}

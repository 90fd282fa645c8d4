package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"claimcheck/internal/model"
	"claimcheck/internal/retry"
)

// Grounded verdict values
const (
	VerdictConfirmed    = "confirmed"
	VerdictContradicted = "contradicted"
	VerdictInsufficient = "insufficient"
)

// Direct analysis verdict values
const (
	VerdictLikelyTrue        = "likely_true"
	VerdictLikelyFalse       = "likely_false"
	VerdictNeedsVerification = "needs_verification"
)

// EvidenceRef is an evidence citation surfaced by the oracle
type EvidenceRef struct {
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
}

// GroundedVerdict is a parsed evidence-grounded judgment
type GroundedVerdict struct {
	Verdict      string        `json:"verdict"`
	Confidence   *float64      `json:"confidence"`
	Rationale    string        `json:"rationale"`
	EvidenceUsed []EvidenceRef `json:"evidence_used"`
	KeyFacts     []string      `json:"key_facts"`
}

// ConfidenceOr returns the oracle confidence clamped into [0,1], or def
// when the oracle omitted the field
func (v *GroundedVerdict) ConfidenceOr(def float64) float64 {
	return clampConfidence(v.Confidence, def)
}

// DirectVerdict is a parsed evidence-free analysis
type DirectVerdict struct {
	Verdict           string   `json:"verdict"`
	Confidence        *float64 `json:"confidence"`
	Analysis          string   `json:"analysis"`
	RedFlags          []string `json:"red_flags"`
	VerificationSteps []string `json:"verification_steps"`
	ImpactIfFalse     string   `json:"impact_if_false"`
}

// ConfidenceOr returns the oracle confidence clamped into [0,1], or def
// when the oracle omitted the field
func (v *DirectVerdict) ConfidenceOr(def float64) float64 {
	return clampConfidence(v.Confidence, def)
}

// Adapter wraps a Provider with the two judgment entry points, strict
// response parsing, and rate-limit retry. A nil-provider Adapter is valid
// and reports every call as unusable, which sends the pipeline straight to
// the local heuristic.
type Adapter struct {
	provider    Provider
	rateLimit   retry.Policy
	maxEvidence int
	sleep       func(time.Duration) // injectable for tests
}

// NewAdapter creates an Adapter around a provider (which may be nil)
func NewAdapter(provider Provider, cfg model.OracleConfig) *Adapter {
	retries := cfg.RateLimitRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RateLimitDelay
	if delay <= 0 {
		delay = 60 * time.Second
	}
	return &Adapter{
		provider: provider,
		rateLimit: retry.Policy{
			MaxAttempts: retries,
			BaseDelay:   delay,
			Retryable:   IsRateLimit,
		},
		maxEvidence: 5,
		sleep:       time.Sleep,
	}
}

// JudgeWithEvidence requests a structured verdict grounded in up to K
// evidence items. A non-nil error means the response was unusable; the
// caller falls through to the next tier and never sees a parse panic.
func (a *Adapter) JudgeWithEvidence(ctx context.Context, claimText string, evidence []model.Evidence) (*GroundedVerdict, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("oracle disabled")
	}

	top := evidence
	if len(top) > a.maxEvidence {
		top = top[:a.maxEvidence]
	}

	raw, err := a.generate(ctx, BuildJudgmentPrompt(claimText, top), GenerateOptions{
		Temperature: 0.0,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, err
	}

	obj, err := extractObject(raw)
	if err != nil {
		warnUnusable("grounded judgment", raw, err)
		return nil, err
	}
	if err := validateParsed(obj); err != nil {
		warnUnusable("grounded judgment", raw, err)
		return nil, err
	}

	var verdict GroundedVerdict
	if err := json.Unmarshal(obj, &verdict); err != nil {
		warnUnusable("grounded judgment", raw, err)
		return nil, fmt.Errorf("decode grounded verdict: %w", err)
	}
	return &verdict, nil
}

// AnalyzeDirect requests an evidence-free analysis of the claim. Used only
// when the grounded judgment yielded nothing usable.
func (a *Adapter) AnalyzeDirect(ctx context.Context, claimText string) (*DirectVerdict, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("oracle disabled")
	}

	raw, err := a.generate(ctx, BuildDirectAnalysisPrompt(claimText), GenerateOptions{
		Temperature: 0.0,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, err
	}

	obj, err := extractObject(raw)
	if err != nil {
		warnUnusable("direct analysis", raw, err)
		return nil, err
	}
	if err := validateParsed(obj); err != nil {
		warnUnusable("direct analysis", raw, err)
		return nil, err
	}

	var verdict DirectVerdict
	if err := json.Unmarshal(obj, &verdict); err != nil {
		warnUnusable("direct analysis", raw, err)
		return nil, fmt.Errorf("decode direct verdict: %w", err)
	}
	return &verdict, nil
}

// Explain generates free-text output for an explanation prompt. No JSON
// parsing applies; the caller has template fallbacks.
func (a *Adapter) Explain(ctx context.Context, prompt string) (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("oracle disabled")
	}
	return a.generate(ctx, prompt, GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   200,
	})
}

// generate calls the provider, retrying rate-limit errors with the
// vendor-hinted or default delay. Retry here is adapter-local and distinct
// from job-level requeue.
func (a *Adapter) generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		raw, err := a.provider.Generate(ctx, prompt, opts)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !a.rateLimit.ShouldRetry(err, attempt) {
			return "", lastErr
		}

		delay := a.rateLimit.BaseDelay
		var rle *RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			delay = rle.RetryAfter
		}
		fmt.Fprintf(os.Stderr, "Warning: oracle rate limited, waiting %s (attempt %d/%d)\n",
			delay, attempt, a.rateLimit.MaxAttempts)
		a.sleep(delay)
	}
}

// warnUnusable logs unusable oracle output with a truncated payload for
// diagnosis
func warnUnusable(kind, raw string, err error) {
	if clipped := clip(raw, 200); clipped != raw {
		raw = clipped + "..."
	}
	fmt.Fprintf(os.Stderr, "Warning: unusable oracle %s: %v (payload: %q)\n", kind, err, raw)
}

// clip truncates s to at most max characters. Snippets and payloads are
// often Devanagari, so truncation must not split a multi-byte rune.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

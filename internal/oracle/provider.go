package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claimcheck/internal/model"
)

// Provider is a text-generation backend. The verifier never depends on a
// vendor wire format, only on this interface.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends a prompt and returns the raw response text
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Available checks whether the provider is configured and reachable
	Available(ctx context.Context) bool
}

// GenerateOptions carries per-call generation parameters
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Sentinel errors mapped from provider responses. A truncated or
// safety-blocked response is a defined condition, never a panic.
var (
	// ErrBlocked marks a response cut off by a safety filter
	ErrBlocked = errors.New("oracle response blocked by safety filter")

	// ErrTruncated marks a response cut off by the token limit
	ErrTruncated = errors.New("oracle response truncated")

	// ErrEmpty marks a response with no content
	ErrEmpty = errors.New("oracle returned empty response")
)

// RateLimitError is returned on HTTP 429. RetryAfter carries the vendor's
// retry-delay hint when one was present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("oracle rate limited, retry after %s", e.RetryAfter)
	}
	return "oracle rate limited"
}

// IsRateLimit reports whether err is a rate-limit error
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// NewProvider builds a provider from configuration. An empty provider name
// disables the oracle; callers fall through to the local heuristic.
func NewProvider(cfg model.OracleConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q", cfg.Provider)
	}
}

// Package llm provides a unified interface for hosted completion providers
// (Gemini, OpenAI) with model routing and fallback. The analytics pipeline
// treats the whole package as optional: when no provider is configured or
// every call fails, callers receive a fixed fallback message instead of an
// error surface.
package llm

import (
	"context"
	"errors"
)

// Provider names for routing and configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Common errors returned by completion providers.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
	ErrInvalidModel = errors.New("llm: invalid model")
	ErrEmptyOutput  = errors.New("llm: empty completion")
	ErrNoProviders  = errors.New("llm: no providers configured")
)

// CompletionRequest is a single-turn text completion request.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Provider is the interface every completion backend implements.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// Complete sends one prompt and returns the generated text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Models returns the models this provider can route to, in
	// preference order.
	Models() []string

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

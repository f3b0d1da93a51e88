package llm

import (
	"context"
	"errors"
	"log"
)

// UnavailableMessage is returned to end users whenever no provider can
// produce a completion. The pipeline never surfaces provider errors.
const UnavailableMessage = "AI analysis service is currently unavailable."

// Completion defaults.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)

// Completer routes completion requests across providers and models with
// fallback. Providers are tried in registration order; within a provider,
// models are tried in the configured order. The first non-empty completion
// wins.
type Completer struct {
	providers   []Provider
	models      []string
	maxTokens   int
	temperature float64
}

// CompleterOption configures the Completer.
type CompleterOption func(*Completer)

// WithModels overrides the fallback model list.
func WithModels(models []string) CompleterOption {
	return func(c *Completer) {
		if len(models) > 0 {
			c.models = models
		}
	}
}

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(n int) CompleterOption {
	return func(c *Completer) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompleterOption {
	return func(c *Completer) {
		if t > 0 {
			c.temperature = t
		}
	}
}

// NewCompleter creates a Completer over the given providers. A nil or empty
// provider list is allowed; completions then always fall back.
func NewCompleter(providers []Provider, opts ...CompleterOption) *Completer {
	c := &Completer{
		providers:   providers,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether at least one provider is registered.
func (c *Completer) Available() bool { return len(c.providers) > 0 }

// Providers returns the names of the registered providers.
func (c *Completer) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Complete tries each provider and model combination until one succeeds.
// It returns ErrNoProviders when none are registered and the last error
// when all combinations fail.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for _, provider := range c.providers {
		for _, model := range c.modelsFor(provider) {
			text, err := provider.Complete(ctx, CompletionRequest{
				Prompt:      prompt,
				Model:       model,
				MaxTokens:   c.maxTokens,
				Temperature: c.temperature,
			})
			if err == nil {
				return text, nil
			}
			lastErr = err
			log.Printf("llm: %s/%s failed: %v", provider.Name(), model, err)

			// A bad key takes the whole provider out, not just one model.
			if errors.Is(err, ErrNoAPIKey) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}

// modelsFor narrows the configured model list to those a provider actually
// serves, falling back to the provider's own preference order.
func (c *Completer) modelsFor(p Provider) []string {
	if len(c.models) == 0 {
		return p.Models()
	}
	supported := make(map[string]bool, len(p.Models()))
	for _, m := range p.Models() {
		supported[m] = true
	}
	var models []string
	for _, m := range c.models {
		if supported[m] {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return p.Models()
	}
	return models
}

// CompleteText is the error-swallowing variant used by the pipeline: any
// failure becomes the fixed unavailable message.
func (c *Completer) CompleteText(ctx context.Context, prompt string) string {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return UnavailableMessage
	}
	return text
}

package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when a provider needs an API key and none is configured.
var ErrMissingAPIKey = errors.New("API key not configured")

// StatusError is returned when the upstream API answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError wraps a failure to reach the upstream API at all.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// unconfiguredProvider stands in for a provider whose construction failed,
// so the failure surfaces per request instead of at startup.
type unconfiguredProvider struct {
	name string
	err  error
}

// Unconfigured returns a Provider whose every completion fails with err.
func Unconfigured(name string, err error) Provider {
	return &unconfiguredProvider{name: name, err: err}
}

func (p *unconfiguredProvider) Name() string { return p.name }

func (p *unconfiguredProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return nil, p.err
}

// DisplayName is the user-facing name of a provider's API.
func DisplayName(provider string) string {
	switch provider {
	case "google":
		return "Gemini"
	case "openai":
		return "OpenAI"
	case "anthropic":
		return "Anthropic"
	case "ollama":
		return "Ollama"
	}
	return provider
}

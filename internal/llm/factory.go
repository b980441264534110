package llm

import (
	"fmt"
	"os"
)

// KeyLookup resolves the API key for a provider name. It returns "" when
// no key is available.
type KeyLookup func(provider string) string

// EnvKeyLookup reads the conventional environment variables. Gemini keys
// are accepted under both GEMINI_API_KEY and GOOGLE_API_KEY.
func EnvKeyLookup(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "google":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama".
func NewProvider(providerType string, model string) (Provider, error) {
	return NewProviderWithKeys(providerType, model, EnvKeyLookup)
}

// NewProviderWithKeys is NewProvider with a caller-supplied key source.
func NewProviderWithKeys(providerType string, model string, keys KeyLookup) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := keys("anthropic")
		if apiKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable is not set", ErrMissingAPIKey)
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := keys("openai")
		if apiKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable is not set", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "google":
		apiKey := keys("google")
		if apiKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable is not set", ErrMissingAPIKey)
		}
		return NewGoogleProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

package config

import "time"

// Preset describes the models to use with a provider.
type Preset struct {
	Model          string
	EmbeddingModel string
}

// presets maps each provider to its default models. Anthropic has no
// embedding API.
var presets = map[ProviderType]Preset{
	ProviderGoogle:    {Model: "gemini-1.5-flash", EmbeddingModel: "text-embedding-004"},
	ProviderOpenAI:    {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGoogle,
		Model:    presets[ProviderGoogle].Model,
		DataDir:  ".circuitchat",
		Server: ServerConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			Timeout: 120 * time.Second,
		},
		Web: WebConfig{
			DigitalJSURL: "/static/digital.js",
		},
	}
}

// GetPreset returns the preset for provider, or the Google preset when the
// provider is unknown.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderGoogle]
}

package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// DefaultPath is the project configuration file.
const DefaultPath = ".circuitchat.yml"

// Config is the top-level circuitchat configuration, corresponding to
// .circuitchat.yml.
type Config struct {
	Provider  ProviderType    `yaml:"provider" koanf:"provider"`
	Model     string          `yaml:"model" koanf:"model"`
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	Web       WebConfig       `yaml:"web" koanf:"web"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	History   HistoryConfig   `yaml:"history" koanf:"history"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port" koanf:"port"`
	// AllowAllOrigins disables the localhost-only CORS policy.
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LLMConfig bounds upstream model calls.
type LLMConfig struct {
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
	RateLimitRPM int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxTokens    int           `yaml:"max_tokens" koanf:"max_tokens"`
}

// WebConfig controls the served pages.
type WebConfig struct {
	DigitalJSURL string `yaml:"digitaljs_url" koanf:"digitaljs_url"`
	StaticDir    string `yaml:"static_dir" koanf:"static_dir"`
}

// EmbeddingConfig enables similar-prompt search. An empty provider turns it
// off.
type EmbeddingConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
}

// HistoryConfig controls generation history retention.
type HistoryConfig struct {
	// RetentionDays prunes older records at server start; zero keeps all.
	RetentionDays int `yaml:"retention_days" koanf:"retention_days"`
}

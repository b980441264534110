// Package auth stores provider API keys outside the project config.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// APIKeyCredentials stores an API key for a provider.
type APIKeyCredentials struct {
	APIKey string `json:"api_key,omitempty"`
}

// Credentials holds stored credentials for all providers.
type Credentials struct {
	Google    *APIKeyCredentials `json:"google,omitempty"`
	Anthropic *APIKeyCredentials `json:"anthropic,omitempty"`
	OpenAI    *APIKeyCredentials `json:"openai,omitempty"`
}

// Providers lists the providers that take an API key.
var Providers = []string{"google", "openai", "anthropic"}

// dirOverride replaces the home directory in tests.
var dirOverride string

// CredentialPath returns the path to the credentials file
// (~/.circuitchat/credentials.json).
func CredentialPath() (string, error) {
	if dirOverride != "" {
		return filepath.Join(dirOverride, "credentials.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".circuitchat", "credentials.json"), nil
}

// Load reads stored credentials. A missing file yields empty credentials.
func Load() (*Credentials, error) {
	path, err := CredentialPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func Save(creds *Credentials) error {
	path, err := CredentialPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (c *Credentials) slot(provider string) **APIKeyCredentials {
	switch provider {
	case "google":
		return &c.Google
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	}
	return nil
}

// Key returns the stored key for provider, or "".
func (c *Credentials) Key(provider string) string {
	s := c.slot(provider)
	if s == nil || *s == nil {
		return ""
	}
	return (*s).APIKey
}

// SetKey stores key for provider. An empty key removes it.
func (c *Credentials) SetKey(provider, key string) error {
	s := c.slot(provider)
	if s == nil {
		return fmt.Errorf("provider %q does not use an API key", provider)
	}
	if key == "" {
		*s = nil
		return nil
	}
	*s = &APIKeyCredentials{APIKey: key}
	return nil
}

// GetAPIKey returns the API key for the given provider.
// It checks the environment first, then falls back to stored credentials.
func GetAPIKey(provider string) string {
	// Priority 1: Environment variable.
	if key := llm.EnvKeyLookup(provider); key != "" {
		return key
	}

	// Priority 2: Stored credentials.
	creds, err := Load()
	if err != nil {
		return ""
	}
	return creds.Key(provider)
}

// KeyLookup adapts GetAPIKey for the provider factories.
func KeyLookup() llm.KeyLookup {
	return GetAPIKey
}

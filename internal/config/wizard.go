package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to circuitchat! Let's configure the service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	preset := GetPreset(cfg.Provider)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: preset.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Simulator bundle.
	jsPrompt := promptui.Prompt{
		Label:   "digitaljs script URL",
		Default: cfg.Web.DigitalJSURL,
	}
	if cfg.Web.DigitalJSURL, err = jsPrompt.Run(); err != nil {
		return nil, fmt.Errorf("digitaljs url: %w", err)
	}

	// 5. Similar-prompt search.
	if preset.EmbeddingModel != "" {
		embedPrompt := promptui.Select{
			Label: "Enable similar-prompt search over history (uses embeddings)",
			Items: []string{"no", "yes"},
		}
		idx, _, err := embedPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding selection: %w", err)
		}
		if idx == 1 {
			cfg.Embedding = EmbeddingConfig{Provider: cfg.Provider, Model: preset.EmbeddingModel}
		}
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s or run `circuitchat auth %s` before starting the server.\n", envVar, cfg.Provider)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

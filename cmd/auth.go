package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/auth"
	"github.com/ziadkadry99/circuitchat/internal/config"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials for LLM providers",
	Long: `Store and manage API credentials for LLM providers.

Credentials are stored in ~/.circuitchat/credentials.json and used
as a fallback when environment variables are not set.`,
}

var authGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Store Gemini API key",
	Long: `Store your Gemini API key for persistent use.

Get your API key at https://aistudio.google.com/app/apikey`,
	RunE: func(cmd *cobra.Command, args []string) error { return runAuthKey("google", nil) },
}

var authAnthropicCmd = &cobra.Command{
	Use:   "anthropic",
	Short: "Store Anthropic API key",
	Long: `Store your Anthropic API key for persistent use.

Get your API key at https://console.anthropic.com/settings/keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthKey("anthropic", verifyAnthropicKey)
	},
}

var authOpenAICmd = &cobra.Command{
	Use:   "openai",
	Short: "Store OpenAI API key",
	Long: `Store your OpenAI API key for persistent use.

Get your API key at https://platform.openai.com/api-keys`,
	RunE: func(cmd *cobra.Command, args []string) error { return runAuthKey("openai", nil) },
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have stored credentials",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a provider.

If no provider is specified, removes all stored credentials.
Valid providers: google, anthropic, openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authGoogleCmd)
	authCmd.AddCommand(authAnthropicCmd)
	authCmd.AddCommand(authOpenAICmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthKey(provider string, verify func(string) error) error {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("%s API key", llm.DisplayName(provider)),
		Mask:  '*',
	}
	input, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	apiKey := strings.TrimSpace(input)
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	if verify != nil {
		// Verify the key with a lightweight API call.
		fmt.Print("Verifying API key... ")
		if err := verify(apiKey); err != nil {
			fmt.Println("failed!")
			return fmt.Errorf("key verification failed: %w", err)
		}
		fmt.Println("valid!")
	}

	creds, err := auth.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if err := creds.SetKey(provider, apiKey); err != nil {
		return err
	}
	if err := auth.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Printf("%s credentials stored successfully!\n", llm.DisplayName(provider))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	creds, err := auth.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	path, _ := auth.CredentialPath()
	fmt.Printf("Credentials file: %s\n\n", path)

	fmt.Println("Provider     Status")
	fmt.Println("--------     ------")

	for _, p := range auth.Providers {
		switch {
		case llm.EnvKeyLookup(p) != "":
			fmt.Printf("%-12s configured (env var %s)\n", p, config.APIKeyEnvVar(config.ProviderType(p)))
		case creds.Key(p) != "":
			fmt.Printf("%-12s configured (stored)\n", p)
		default:
			fmt.Printf("%-12s not configured\n", p)
		}
	}

	// Ollama (always available locally)
	fmt.Println("ollama       available (local)")

	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	creds, err := auth.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if len(args) == 0 {
		// Remove all credentials.
		creds = &auth.Credentials{}
		fmt.Println("All stored credentials removed.")
	} else {
		if err := creds.SetKey(args[0], ""); err != nil {
			return fmt.Errorf("unknown provider %q (valid: %s)", args[0], strings.Join(auth.Providers, ", "))
		}
		fmt.Printf("%s credentials removed.\n", llm.DisplayName(args[0]))
	}

	return auth.Save(creds)
}

func verifyAnthropicKey(apiKey string) error {
	// Send a minimal request to check the key is valid.
	body := strings.NewReader(`{"model":"claude-sonnet-4-5-20250929","max_tokens":1,"messages":[{"role":"user","content":"hi"}]}`)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "https://api.anthropic.com/v1/messages", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid API key (401 Unauthorized)")
	}
	// Any other status (200, 429, etc.) means the key is valid.
	return nil
}

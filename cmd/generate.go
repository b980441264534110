package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [description]",
	Short: "Generate a digitaljs circuit from a natural-language description",
	Long: `Sends the description to the configured LLM and prints the resulting
digitaljs circuit JSON to stdout. The explanation and any inspection
warnings go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("out", "o", "", "write the circuit JSON to this file instead of stdout")
	generateCmd.Flags().Bool("json", false, "print the full API response (circuitJson, explanation, warnings) as JSON")
	rootCmd.AddCommand(generateCmd)
}

// generateError turns a generation failure into the message the HTTP API
// would have returned.
func generateError(provider string, err error) error {
	status, body := api.GenerateError(provider, err)
	msg := fmt.Sprintf("%s (status %d)", body.Error, status)
	if body.ParseErrorMessage != "" {
		msg += "\n" + body.ParseErrorMessage
	}
	if body.Details != "" && verbose {
		msg += "\n\n" + body.Details
	}
	return fmt.Errorf("%s", msg)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prompt := strings.Join(args, " ")
	outPath, _ := cmd.Flags().GetString("out")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.generator.Generate(ctx, circuitgen.Request{Prompt: prompt})
	if err != nil {
		return generateError(a.generator.Provider(), err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(api.GenerateResponse{
			CircuitJSON:  res.CircuitJSON,
			Explanation:  res.Explanation,
			GenerationID: res.GenerationID,
			Warnings:     res.Warnings,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	pretty, err := indentJSON(res.CircuitJSON)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, pretty, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "Circuit written to %s\n", outPath)
	} else {
		fmt.Println(string(pretty))
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", res.Explanation)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "\nGeneration %s: %d input / %d output tokens, ~$%.4f, %s\n",
			res.GenerationID, res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.CostUSD, res.Usage.Duration.Round(time.Millisecond))
	}
	return nil
}

// indentJSON pretty-prints raw while keeping the model's key order.
func indentJSON(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("formatting circuit: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

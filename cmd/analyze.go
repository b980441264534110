package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/api"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [circuit.json]",
	Short: "Ask the LLM to review a circuit and suggest improvements",
	Long: `Reads a digitaljs circuit JSON file (or stdin when the argument is "-" or
omitted) and prints the model's suggestions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := readInput(args)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.generator.Analyze(ctx, string(data))
	if err != nil {
		status, body := api.AnalyzeError(err)
		return fmt.Errorf("%s (status %d)", body.Result, status)
	}
	fmt.Println(out)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/batch"
	"github.com/ziadkadry99/circuitchat/internal/progress"
)

var batchCmd = &cobra.Command{
	Use:   "batch [prompt-file-pattern...]",
	Short: "Generate circuits for every prompt in one or more prompt files",
	Long: `Reads prompt files (one description per line, # for comments) matching
the given paths or glob patterns and generates a circuit for each prompt.
Successful circuits are written as JSON files to the output directory.
Every attempt is recorded in the generation history. A quota error from the
provider stops the remaining prompts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("out", "o", "circuits", "output directory")
	batchCmd.Flags().Int("concurrency", 2, "max parallel LLM calls")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outDir, _ := cmd.Flags().GetString("out")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	prompts, err := batch.LoadPrompts(args)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		fmt.Println("No prompts found.")
		return nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reporter := progress.NewReporter()
	reporter.Start(len(prompts))
	b := batch.NewBatcher(concurrency, a.generator, func(done, total int, prompt string) {
		reporter.Update(done, prompt)
	})
	res := b.Run(ctx, prompts)
	reporter.Finish(res.Failed)

	paths, err := batch.WriteOutputs(outDir, res.Items)
	if err != nil {
		return err
	}

	for _, it := range res.Items {
		if it.Err != nil {
			fmt.Fprintf(os.Stderr, "FAIL  %s:%d %q: %v\n", it.Prompt.Source, it.Prompt.Line, it.Prompt.Text,
				generateError(a.generator.Provider(), it.Err))
		}
	}
	fmt.Printf("%d circuit(s) written to %s\n", len(paths), outDir)
	if res.InputTokens > 0 || res.OutputTokens > 0 {
		fmt.Printf("Tokens: %d input, %d output (~$%.4f)\n", res.InputTokens, res.OutputTokens, res.CostUSD)
	}

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d prompt(s) failed", res.Failed, len(prompts))
	}
	return nil
}

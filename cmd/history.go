package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded circuit generations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one generation, including the raw model output",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySimilarCmd = &cobra.Command{
	Use:   "similar [query]",
	Short: "Find past prompts similar to a query (requires an embedding provider)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySimilar,
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count generations by outcome",
	RunE:  runHistorySummary,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete generations older than a number of days",
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of records")
	historyListCmd.Flags().String("status", "", "filter by status (ok, invalid_json, no_json_block, ...)")
	historyListCmd.Flags().String("search", "", "filter by prompt substring")
	historyListCmd.Flags().Bool("json", false, "output as JSON")
	historySimilarCmd.Flags().Int("limit", 5, "maximum number of matches")
	historyPruneCmd.Flags().Int("days", 30, "keep records newer than this many days")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySimilarCmd, historySummaryCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	search, _ := cmd.Flags().GetString("search")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.Query(ctx, history.QueryFilter{
		Status: history.Status(status),
		Search: search,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding entries: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No generations recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tMODEL\tPROMPT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Model, truncate(e.Prompt, 60))
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.store.GetByID(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", e.ID)
	fmt.Printf("Created:   %s\n", e.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("Status:    %s\n", e.Status)
	fmt.Printf("Model:     %s/%s\n", e.Provider, e.Model)
	fmt.Printf("Tokens:    %d in / %d out (~$%.4f)\n", e.InputTokens, e.OutputTokens, e.CostUSD)
	fmt.Printf("Duration:  %s\n", e.Duration.Round(time.Millisecond))
	fmt.Printf("Prompt:    %s\n", e.Prompt)
	if e.Error != "" {
		fmt.Printf("Error:     %s\n", e.Error)
	}
	if len(e.CircuitJSON) > 0 {
		pretty, err := indentJSON(e.CircuitJSON)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s", pretty)
	}
	if e.Explanation != "" {
		fmt.Printf("\n%s\n", e.Explanation)
	}
	if verbose && e.RawText != "" {
		fmt.Printf("\n--- Raw model output ---\n%s\n", e.RawText)
	}
	return nil
}

func runHistorySimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.index == nil {
		return fmt.Errorf("similar search requires an embedding provider; set embedding.provider in %s", cfgFile)
	}
	matches, err := a.index.Similar(ctx, args[0], limit, false)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(matches) == 0 {
		fmt.Println("No similar prompts found.")
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%d. [%.2f] %s (%s, %s)\n", i+1, m.Similarity, m.Prompt, m.Status, m.ID)
	}
	return nil
}

func runHistorySummary(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.store.Summarize(ctx, history.QueryFilter{})
	if err != nil {
		return err
	}
	fmt.Printf("Total generations: %d (~$%.4f)\n", sum.Total, sum.CostUSD)
	for status, n := range sum.ByStatus {
		fmt.Printf("  %-16s %d\n", status, n)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	days, _ := cmd.Flags().GetInt("days")
	if days < 0 {
		return fmt.Errorf("--days must not be negative")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.store.DeleteBefore(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d generation(s) older than %d day(s).\n", n, days)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

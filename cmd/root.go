package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "circuitchat",
	Short: "Describe digital logic circuits in plain language and simulate them",
	Long: `circuitchat turns natural-language descriptions of digital logic circuits
into digitaljs circuit JSON using an LLM, and serves a chat interface that
loads the result into the digitaljs simulator in your browser. It can also
review existing circuits, validate circuit files, and expose its tools to AI
agents over MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize circuitchat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM provider, model, server port and digitaljs location, and writes a .circuitchat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

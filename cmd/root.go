package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trench-radar",
	Short: "Discord companion bot for trench.bot bundle analysis",
	Long:  "Watches scanner-bot messages for Solana contract addresses and replies with trench.bot bundle risk summaries.",
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

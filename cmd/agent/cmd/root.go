package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bm-echo-agent",
	Short: "Business Messages echo agent",
	Long: `bm-echo-agent receives Business Messages callbacks, drops redeliveries,
and replies with an echo, a rich card, a carousel or suggestion chips.
Configuration is read from the environment.`,
	SilenceUsage: true,
}

// Execute runs the command tree. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}
